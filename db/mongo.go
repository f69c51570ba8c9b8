package db

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bird-detection/model"
	"bird-detection/spectro"
	"bird-detection/stats"
)

const (
	spectrogramsCollection = "spectrograms"
	statisticsCollection   = "statistics"
	modelsCollection       = "models"
)

// MongoStore persists spectrograms, per-file statistics and trained models.
// It serves both sides of the pipeline: stats.SpectrogramSource for reads and
// stats.StatsWriter / stats.StatsReader for the statistics records.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

// WithPoolDatabase returns a view of the same connection onto an alternate
// database, used when template-pool spectrograms live elsewhere.
func (s *MongoStore) WithPoolDatabase(dbName string) *MongoStore {
	return &MongoStore{client: s.client, db: s.client.Database(dbName)}
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// spectrogramDoc is the stored form of one file's spectrogram and detections.
type spectrogramDoc struct {
	Label         string      `bson:"label"`
	Boxes         [][]int     `bson:"boxes"`
	Values        [][]float64 `bson:"values"`
	Normalization float64     `bson:"normalization"`
}

// WriteSpectrogram upserts one file's spectrogram and bounding boxes.
func (s *MongoStore) WriteSpectrogram(ctx context.Context, label string, table spectro.BoxTable, spec spectro.Spectrogram) error {
	boxes := make([][]int, len(table))
	for i, box := range table {
		boxes[i] = []int{box.XMin, box.XMax, box.YMin, box.YMax}
	}

	values := make([][]float64, spec.Height())
	for y := range values {
		row := make([]float64, spec.Width())
		for x := range row {
			row[x] = spec.At(y, x)
		}
		values[y] = row
	}

	doc := spectrogramDoc{
		Label:         label,
		Boxes:         boxes,
		Values:        values,
		Normalization: spec.Normalization(),
	}

	_, err := s.db.Collection(spectrogramsCollection).ReplaceOne(
		ctx,
		bson.M{"label": label},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("error writing spectrogram for %s: %s", label, err)
	}
	return nil
}

// Get implements stats.SpectrogramSource against the spectrograms collection.
func (s *MongoStore) Get(ctx context.Context, label string) (spectro.BoxTable, spectro.Spectrogram, error) {
	var doc spectrogramDoc
	err := s.db.Collection(spectrogramsCollection).FindOne(ctx, bson.M{"label": label}).Decode(&doc)
	if err != nil {
		return nil, spectro.Spectrogram{}, fmt.Errorf("error reading spectrogram for %s: %s", label, err)
	}
	return decodeSpectrogramDoc(doc)
}

func decodeSpectrogramDoc(doc spectrogramDoc) (spectro.BoxTable, spectro.Spectrogram, error) {
	table := make(spectro.BoxTable, 0, len(doc.Boxes))
	for i, coords := range doc.Boxes {
		if len(coords) != 4 {
			return nil, spectro.Spectrogram{}, fmt.Errorf("box %d of %s has %d coordinates, want 4", i, doc.Label, len(coords))
		}
		box, err := spectro.NewBox(coords[0], coords[1], coords[2], coords[3])
		if err != nil {
			return nil, spectro.Spectrogram{}, fmt.Errorf("box %d of %s: %w", i, doc.Label, err)
		}
		table = append(table, box)
	}

	spec, err := spectro.NewSpectrogram(doc.Values, doc.Normalization)
	if err != nil {
		return nil, spectro.Spectrogram{}, fmt.Errorf("spectrogram of %s: %w", doc.Label, err)
	}
	return table, spec, nil
}

// statsDoc is the stored form of one label's complete statistics record. The
// flat [score, x, y] triples keep the BSON schema free of fixed-size arrays.
type statsDoc struct {
	Label         string                 `bson:"label"`
	FileStats     []float64              `bson:"file_stats"`
	FileFileStats map[string][][]float64 `bson:"file_file_stats"`
}

func statsDocFrom(label string, row []float64, matches map[string]stats.MatchStats) statsDoc {
	encoded := make(map[string][][]float64, len(matches))
	for other, ms := range matches {
		rows := make([][]float64, len(ms))
		for i, m := range ms {
			rows[i] = []float64{m[0], m[1], m[2]}
		}
		encoded[other] = rows
	}
	return statsDoc{Label: label, FileStats: row, FileFileStats: encoded}
}

// CursorItemToStats decodes one statistics document back into the in-memory
// record form. Inverse of statsDocFrom.
func CursorItemToStats(doc statsDoc) (stats.StatsRecord, error) {
	matches := make(map[string]stats.MatchStats, len(doc.FileFileStats))
	for other, rows := range doc.FileFileStats {
		ms := make(stats.MatchStats, len(rows))
		for i, row := range rows {
			if len(row) != 3 {
				return stats.StatsRecord{}, fmt.Errorf("match row %d of %s vs %s has %d values, want 3", i, doc.Label, other, len(row))
			}
			ms[i] = [3]float64{row[0], row[1], row[2]}
		}
		matches[other] = ms
	}
	return stats.StatsRecord{Label: doc.Label, Row: doc.FileStats, Matches: matches}, nil
}

// WriteFileStats implements stats.StatsWriter. The replace-with-upsert keeps
// the write atomic per label: readers see the old record or the new one,
// never a partial mix.
func (s *MongoStore) WriteFileStats(ctx context.Context, label string, row []float64, matches map[string]stats.MatchStats) error {
	_, err := s.db.Collection(statisticsCollection).ReplaceOne(
		ctx,
		bson.M{"label": label},
		statsDocFrom(label, row, matches),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("error writing statistics for %s: %s", label, err)
	}
	return nil
}

// ReadStats implements stats.StatsReader with cursor-style iteration over the
// statistics collection.
func (s *MongoStore) ReadStats(ctx context.Context, labels []string, fn func(stats.StatsRecord) error) error {
	cursor, err := s.db.Collection(statisticsCollection).Find(ctx, bson.M{"label": bson.M{"$in": labels}})
	if err != nil {
		return fmt.Errorf("error querying statistics: %s", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc statsDoc
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("error decoding statistics record: %s", err)
		}
		record, err := CursorItemToStats(doc)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// modelDoc carries a fitted estimator and its scaler, keyed by species.
type modelDoc struct {
	Species string `bson:"species"`
	Forest  string `bson:"forest"`
	Scaler  string `bson:"scaler"`
}

// WriteModel upserts the trained artifacts for one species.
func (s *MongoStore) WriteModel(ctx context.Context, species string, forest *model.RandomForest, scaler *model.MinMaxScaler) error {
	forestJSON, err := json.Marshal(forest)
	if err != nil {
		return fmt.Errorf("error marshaling forest for %s: %s", species, err)
	}
	scalerJSON, err := json.Marshal(scaler)
	if err != nil {
		return fmt.Errorf("error marshaling scaler for %s: %s", species, err)
	}

	_, err = s.db.Collection(modelsCollection).ReplaceOne(
		ctx,
		bson.M{"species": species},
		modelDoc{Species: species, Forest: string(forestJSON), Scaler: string(scalerJSON)},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("error writing model for %s: %s", species, err)
	}
	return nil
}

// ReadModel loads the trained artifacts for one species.
func (s *MongoStore) ReadModel(ctx context.Context, species string) (*model.RandomForest, *model.MinMaxScaler, error) {
	var doc modelDoc
	err := s.db.Collection(modelsCollection).FindOne(ctx, bson.M{"species": species}).Decode(&doc)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading model for %s: %s", species, err)
	}

	var forest model.RandomForest
	if err := json.Unmarshal([]byte(doc.Forest), &forest); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling forest for %s: %s", species, err)
	}
	var scaler model.MinMaxScaler
	if err := json.Unmarshal([]byte(doc.Scaler), &scaler); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling scaler for %s: %s", species, err)
	}
	return &forest, &scaler, nil
}
