package utils

import (
	"fmt"
	"os"
)

// CreateFolder creates the folder (and any parents) if it does not exist.
func CreateFolder(folderPath string) error {
	if _, err := os.Stat(folderPath); os.IsNotExist(err) {
		if err := os.MkdirAll(folderPath, 0755); err != nil {
			return fmt.Errorf("failed to create folder %s: %w", folderPath, err)
		}
	}
	return nil
}
