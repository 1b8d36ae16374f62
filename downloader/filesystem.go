package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Caches downloaded archives on disk, so that repeated runs against
// the same remote feeds don't download them again. Archives live
// next to a JSON index holding retrieval times.
type Filesystem struct {
	Dir     string
	Records map[string]fsRecord
	TimeNow func() time.Time

	mutex sync.Mutex
}

type fsRecord struct {
	URL         string `json:"url"`
	File        string `json:"file"`
	RetrievedAt string `json:"retrieved_at"`
}

const fsIndexName = "index.json"

func NewFilesystem(dir string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	fs := &Filesystem{
		Dir:     dir,
		Records: map[string]fsRecord{},
		TimeNow: time.Now,
	}

	err := fs.load()
	if err != nil {
		return nil, err
	}

	return fs, nil
}

func (f *Filesystem) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {

	f.mutex.Lock()
	defer f.mutex.Unlock()

	key := cacheKey(url, headers)

	if options.Cache {
		if record, found := f.Records[key]; found {
			retrievedAt, err := time.Parse(time.RFC3339, record.RetrievedAt)
			if err != nil {
				return nil, err
			}
			if retrievedAt.Add(options.CacheTTL).After(f.TimeNow()) {
				body, err := os.ReadFile(filepath.Join(f.Dir, record.File))
				if err == nil {
					return body, nil
				}
				// cached file gone, fall through and
				// download again
			}
		}
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}

	if options.Cache {
		file := key + ".zip"
		err = os.WriteFile(filepath.Join(f.Dir, file), body, 0644)
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", file, err)
		}
		f.Records[key] = fsRecord{
			URL:         url,
			File:        file,
			RetrievedAt: f.TimeNow().UTC().Format(time.RFC3339),
		}
		err = f.save()
		if err != nil {
			return nil, fmt.Errorf("saving: %w", err)
		}
	}

	return body, nil
}

func (f *Filesystem) load() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	path := filepath.Join(f.Dir, fsIndexName)

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading: %w", err)
	}

	err = json.Unmarshal(buf, &f.Records)
	if err != nil {
		return fmt.Errorf("unmarshalling: %w", err)
	}

	return nil
}

func (f *Filesystem) save() error {
	buf, err := json.Marshal(f.Records)
	if err != nil {
		return fmt.Errorf("marshalling: %w", err)
	}

	err = os.WriteFile(filepath.Join(f.Dir, fsIndexName), buf, 0644)
	if err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	return nil
}
