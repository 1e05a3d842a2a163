package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// checksumFile sits next to the config file it covers.
const checksumFile = ".checksums"

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyFileHash verifies a file against an expected BLAKE3 hash.
func VerifyFileHash(filePath, expectedHash string) error {
	actualHash, err := ComputeBlake3Hash(filePath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}

	if actualHash != expectedHash {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s",
			filepath.Base(filePath), expectedHash, actualHash)
	}

	return nil
}

// WriteChecksum computes the config file's BLAKE3 hash and writes the
// .checksums manifest next to it (`signalhub config lock`).
func WriteChecksum(configPath string) (string, error) {
	hash, err := ComputeBlake3Hash(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", configPath, err)
	}

	manifest := ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes: map[string]string{
			filepath.Base(configPath): hash,
		},
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checksums: %w", err)
	}

	// Write with restrictive permissions (contains expected hashes).
	path := checksumPathFor(configPath)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write checksums: %w", err)
	}
	return hash, nil
}

// LoadChecksums reads the .checksums manifest covering configPath.
// Returns (nil, nil) when no manifest exists.
func LoadChecksums(configPath string) (*ChecksumManifest, error) {
	data, err := os.ReadFile(checksumPathFor(configPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse checksums: %w", err)
	}
	if manifest.Version != 1 {
		return nil, fmt.Errorf("unsupported checksums version: %d", manifest.Version)
	}
	return &manifest, nil
}

// VerifyConfigIntegrity checks the config file against its manifest. A
// missing manifest is not an error (integrity locking is opt-in via
// `signalhub config lock`); a manifest that no longer matches is.
func VerifyConfigIntegrity(configPath string) error {
	manifest, err := LoadChecksums(configPath)
	if err != nil {
		return err
	}
	if manifest == nil {
		return nil
	}

	expected, ok := manifest.Hashes[filepath.Base(configPath)]
	if !ok {
		return fmt.Errorf("config file %s has no hash in checksums (run 'signalhub config lock')", filepath.Base(configPath))
	}

	if err := VerifyFileHash(configPath, expected); err != nil {
		return fmt.Errorf("config verification failed: %w\n"+
			"This indicates tampering or unauthorized modification.\n"+
			"If you edited this file intentionally, run: signalhub config lock", err)
	}
	return nil
}

func checksumPathFor(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), checksumFile)
}
