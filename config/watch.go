package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file whenever it changes and hands each valid result to
// fn. Edits that fail to parse or validate go to errFn and the previous
// settings stay in effect. The returned stop function releases the watcher.
//
// The watch is on the directory, not the file: most editors replace the
// file on save, which would silently kill a file-level watch.
func Watch(path string, fn func(Config), errFn func(error)) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	name := filepath.Clean(path)

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					if errFn != nil {
						errFn(err)
					}
					continue
				}
				fn(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if errFn != nil {
					errFn(err)
				}
			}
		}
	}()
	return func() { w.Close() }, nil
}
