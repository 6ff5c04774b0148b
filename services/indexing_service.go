package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"
)

// Chunking parameters for the knowledge base. The overlap preserves context
// across chunk boundaries.
const (
	chunkSize    = 1200
	chunkOverlap = 250
)

// FileIndexingService builds the vector-store artifact the server later
// loads read-only: it scans a documents folder, chunks and embeds each file,
// and persists the result into a chromem-go collection. It runs in the
// offline indexer binary, never in the serving process.
//
// The service keeps a source_file -> file_hash manifest next to the store so
// a re-scan can skip unchanged files, replace the chunks of modified ones,
// and sweep the chunks of files no longer on disk.
type FileIndexingService struct {
	collection *chromem.Collection
	stateFile  string
}

// NewFileIndexingService creates a new indexing service. stateFile is where
// the index manifest is persisted between runs.
func NewFileIndexingService(collection *chromem.Collection, stateFile string) *FileIndexingService {
	return &FileIndexingService{
		collection: collection,
		stateFile:  stateFile,
	}
}

// ScanAndIndexDirectory syncs the collection with dirPath: new and modified
// files are (re-)indexed, unchanged files are skipped by hash comparison,
// and chunks of files that disappeared from disk are deleted.
func (s *FileIndexingService) ScanAndIndexDirectory(ctx context.Context, dirPath string) error {
	log.Info().Str("dir", dirPath).Msg("starting directory scan")

	state, err := s.loadState()
	if err != nil {
		return fmt.Errorf("could not load index state: %w", err)
	}

	indexed := 0
	localFiles := make(map[string]bool)
	err = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSupportedFile(path) {
			return nil
		}
		localFiles[path] = true

		hash, err := calculateFileHash(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("could not hash file")
			return nil
		}
		if state[path] == hash {
			return nil // File is unchanged, skip.
		}

		// A modified file gets new hash-derived chunk IDs, so its previous
		// chunks must go first or they would linger and keep being retrieved.
		if _, ok := state[path]; ok {
			if err := s.removeChunks(ctx, path); err != nil {
				log.Error().Err(err).Str("file", path).Msg("failed to delete old chunks")
				return nil
			}
		}

		if err := s.indexChunks(ctx, path, hash); err != nil {
			log.Error().Err(err).Str("file", path).Msg("failed to index file")
			return nil
		}
		state[path] = hash
		indexed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("error walking %s: %w", dirPath, err)
	}

	// Handle deletions.
	for path := range state {
		if localFiles[path] {
			continue
		}
		log.Info().Str("file", path).Msg("file deleted, removing from index")
		if err := s.removeChunks(ctx, path); err != nil {
			log.Error().Err(err).Str("file", path).Msg("failed to delete chunks")
			continue
		}
		delete(state, path)
	}

	if err := s.saveState(state); err != nil {
		return fmt.Errorf("could not save index state: %w", err)
	}

	log.Info().Int("files", indexed).Msg("directory scan finished")
	return nil
}

// IndexFile (re-)indexes a single file, replacing any chunks from an earlier
// version.
func (s *FileIndexingService) IndexFile(ctx context.Context, path string) error {
	hash, err := calculateFileHash(path)
	if err != nil {
		return fmt.Errorf("could not hash %s: %w", path, err)
	}

	state, err := s.loadState()
	if err != nil {
		return fmt.Errorf("could not load index state: %w", err)
	}

	if err := s.removeChunks(ctx, path); err != nil {
		return err
	}
	if err := s.indexChunks(ctx, path, hash); err != nil {
		return err
	}

	state[path] = hash
	return s.saveState(state)
}

// RemoveFile deletes every chunk that came from path and forgets the file in
// the manifest.
func (s *FileIndexingService) RemoveFile(ctx context.Context, path string) error {
	if err := s.removeChunks(ctx, path); err != nil {
		return err
	}

	state, err := s.loadState()
	if err != nil {
		return fmt.Errorf("could not load index state: %w", err)
	}
	delete(state, path)
	return s.saveState(state)
}

// indexChunks extracts, chunks, embeds, and stores one file version.
func (s *FileIndexingService) indexChunks(ctx context.Context, path, hash string) error {
	content, err := ExtractTextFromFile(path)
	if err != nil {
		return fmt.Errorf("could not extract text from %s: %w", path, err)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
	chunks, err := splitter.SplitText(content)
	if err != nil {
		return fmt.Errorf("could not split %s: %w", path, err)
	}
	log.Info().Str("file", path).Int("chunks", len(chunks)).Msg("split file")

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s-chunk%d", hash[:12], i),
			Content: chunk,
			Metadata: map[string]string{
				"source_file": path,
				"file_hash":   hash,
				"chunk_num":   strconv.Itoa(i),
			},
		})
	}
	if len(docs) == 0 {
		return nil
	}

	// Embeddings are computed by the collection's embedding func.
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add chunks of %s to vector store: %w", path, err)
	}
	return nil
}

// removeChunks deletes every stored chunk whose source_file is path.
func (s *FileIndexingService) removeChunks(ctx context.Context, path string) error {
	return s.collection.Delete(ctx, map[string]string{"source_file": path}, nil)
}

// loadState reads the manifest; a missing file means a fresh index.
func (s *FileIndexingService) loadState() (map[string]string, error) {
	data, err := os.ReadFile(s.stateFile)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}
	state := make(map[string]string)
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("corrupt index state %s: %w", s.stateFile, err)
	}
	return state, nil
}

func (s *FileIndexingService) saveState(state map[string]string) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.stateFile, data, 0644)
}

// WatchDirectory starts a long-running process to re-index files as they
// change. It blocks until the context is cancelled.
func (s *FileIndexingService) WatchDirectory(ctx context.Context, dirPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dirPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dirPath, err)
	}
	log.Info().Str("dir", dirPath).Msg("watching directory")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSupportedFile(event.Name) {
				continue
			}

			// Many editors write via a temp file and a rename, which
			// can fire several events; Create and Write are handled
			// identically so the last one wins.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				log.Info().Str("file", event.Name).Msg("file changed, re-indexing")
				if err := s.IndexFile(ctx, event.Name); err != nil {
					log.Error().Err(err).Str("file", event.Name).Msg("failed to re-index file")
				}
			} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				log.Info().Str("file", event.Name).Msg("file removed, deleting from index")
				if err := s.RemoveFile(ctx, event.Name); err != nil {
					log.Error().Err(err).Str("file", event.Name).Msg("failed to delete chunks")
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")

		case <-ctx.Done():
			log.Info().Msg("watcher shutting down")
			return nil
		}
	}
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf", ".docx", ".csv":
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
