package qoiconv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var sourceExtensions = map[string]struct{}{
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
}

func isSource(file string) bool {
	_, ok := sourceExtensions[strings.ToLower(filepath.Ext(file))]
	return ok
}

func (c *Converter) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	info, err := os.Stat(base)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, errors.New("not a directory")
	}

	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() || !isSource(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

// unchanged reports whether src was already converted from the same bytes
// and the result is still there
func (c *Converter) unchanged(src string) (bool, error) {
	if c.db == nil || c.options.Force {
		return false, nil
	}

	r, err := c.db.FindBySource(src)
	if err != nil || r == nil {
		return false, err
	}

	if _, err := os.Stat(r.Destination); err != nil {
		return false, nil
	}

	sha, err := hashFile(src)
	if err != nil {
		return false, err
	}

	return sha == r.SHA1, nil
}

func (c *Converter) convertWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			select {
			case <-ctx.Done():
				return
			default:
			}

			skip, err := c.unchanged(file)
			if err != nil {
				errc <- err
				return
			}
			if skip {
				c.logger.Printf("Skipping unchanged \"%s\"\n", file)
				continue
			}

			if _, err := c.Convert(file, ""); err != nil {
				// Keep going past files that just aren't convertible
				if errors.Is(err, ErrDecode) || errors.Is(err, ErrUnsupportedColor) {
					c.logger.Printf("Skipping \"%s\": %v\n", file, err)
					continue
				}
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

// waitForPipeline returns the first error from errs. The rest of the
// pipeline is cancelled and drained before returning so no stage outlives
// the call.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks the directory tree at path and converts every PNG, JPEG and
// GIF image found, writing each result next to its source.
func (c *Converter) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < c.options.Workers; i++ {
		errc, err := c.convertWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancelFunc, errcList...)
}
