package downloader

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Keeps downloaded archives in memory for the lifetime of the
// process. Concurrent requests for the same archive share a single
// download.
type MemoryDownloader struct {
	TimeNow func() time.Time

	mutex    sync.Mutex
	archives map[string]memoryArchive
	inflight singleflight.Group
}

type memoryArchive struct {
	body    []byte
	expires time.Time
}

func NewMemoryDownloader() *MemoryDownloader {
	return &MemoryDownloader{
		TimeNow:  time.Now,
		archives: map[string]memoryArchive{},
	}
}

func (d *MemoryDownloader) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {
	key := cacheKey(url, headers)

	if options.Cache {
		if body, ok := d.cached(key); ok {
			return body, nil
		}
	}

	v, err, _ := d.inflight.Do(key, func() (interface{}, error) {
		body, err := HTTPGet(ctx, url, headers, options)
		if err != nil {
			return nil, err
		}
		if options.Cache {
			d.mutex.Lock()
			d.archives[key] = memoryArchive{
				body:    body,
				expires: d.TimeNow().Add(options.CacheTTL),
			}
			d.mutex.Unlock()
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

func (d *MemoryDownloader) cached(key string) ([]byte, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	a, found := d.archives[key]
	if !found || !a.expires.After(d.TimeNow()) {
		return nil, false
	}
	return a.body, true
}
