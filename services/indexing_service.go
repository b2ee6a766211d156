package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/devfolio/portfolio-rag/models"
)

// FileIndexingService keeps a watched documents directory in sync with the
// knowledge base: supported files are extracted, chunked and ingested
// through the RAG service, and removed files are deleted from the index.
type FileIndexingService struct {
	rag RAGService

	mu     sync.Mutex
	hashes map[string]string // path -> content hash, rebuilt each boot
}

func NewFileIndexingService(rag RAGService) *FileIndexingService {
	return &FileIndexingService{
		rag:    rag,
		hashes: make(map[string]string),
	}
}

// WatchDirectory blocks watching dirPath for file changes until ctx is
// cancelled. Create and write events re-index the file; remove and rename
// events drop it from the index.
func (s *FileIndexingService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSupportedFile(event.Name) {
					continue
				}

				// Editors often write via create-temp-and-rename, so Create
				// and Write are handled identically.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Re-indexing...", event.Name)
					if err := s.indexFile(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to process file %s: %v", event.Name, err)
					}
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					log.Printf("WATCHER: File removed/renamed: %s. Removing from index...", event.Name)
					s.removeFile(ctx, event.Name)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

// ScanAndIndexDirectory indexes every supported file under dirPath. Files
// whose content hash is unchanged since the last scan are skipped.
func (s *FileIndexingService) ScanAndIndexDirectory(ctx context.Context, dirPath string) {
	log.Printf("INDEXER: Starting directory scan for: %s", dirPath)

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSupportedFile(path) {
			return nil
		}
		if err := s.indexFile(ctx, path); err != nil {
			log.Printf("INDEXER ERROR: Failed to process file %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("INDEXER ERROR: Error walking the path %s: %v", dirPath, err)
	}
	log.Println("INDEXER: Directory scan finished.")
}

// indexFile extracts the file's text and replaces its previous chunks in
// the knowledge base. Unchanged content (same hash) is skipped.
func (s *FileIndexingService) indexFile(ctx context.Context, path string) error {
	hash, err := calculateFileHash(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	unchanged := s.hashes[path] == hash
	s.mu.Unlock()
	if unchanged {
		return nil
	}

	text, err := ExtractTextFromFile(path)
	if err != nil {
		return err
	}

	docID := documentIDForPath(path)
	s.rag.DeleteDocument(ctx, docID)

	doc := models.Document{
		ID:   docID,
		Text: text,
		Metadata: map[string]any{
			"source":      "file",
			"source_file": path,
			"file_hash":   hash,
		},
	}
	if !s.rag.AddDocuments(ctx, []models.Document{doc}) {
		log.Printf("INDEXER ERROR: Failed to ingest %s", path)
		return nil
	}

	s.mu.Lock()
	s.hashes[path] = hash
	s.mu.Unlock()
	return nil
}

func (s *FileIndexingService) removeFile(ctx context.Context, path string) {
	s.rag.DeleteDocument(ctx, documentIDForPath(path))
	s.mu.Lock()
	delete(s.hashes, path)
	s.mu.Unlock()
}

// documentIDForPath derives a stable document ID from the file path, so
// re-indexing replaces rather than duplicates.
func documentIDForPath(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String()
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
