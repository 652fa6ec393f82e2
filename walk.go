package sftp

import (
	"context"
	"path"
)

// walkItem is one pending or visited node in a Walker's traversal.
type walkItem struct {
	path string
	name string
	attrs Attrs
	err  error
}

// Walker drives a depth-first, Lstat-based walk of a remote directory
// tree, the same shape as filepath.Walk: Step advances to the next
// entry, then Path/Attrs/Err describe it.
type Walker struct {
	c       *Client
	cur     walkItem
	stack   []walkItem
	descend bool
}

// Walk returns a Walker rooted at root. The caller must call Step once
// before the first Path/Attrs/Err call.
func (c *Client) Walk(ctx context.Context, root string) *Walker {
	attrs, err := c.Lstat(ctx, root)
	return &Walker{c: c, stack: []walkItem{{path: root, name: root, attrs: attrs, err: err}}}
}

// Path returns the path of the most recently visited entry, with root
// (the argument to Walk) as its prefix.
func (w *Walker) Path() string { return w.cur.path }

// Attrs returns the attributes of the most recently visited entry.
func (w *Walker) Attrs() Attrs { return w.cur.attrs }

// Err returns the error, if any, encountered visiting the current entry.
// If a directory has an error, Step will not descend into it.
func (w *Walker) Err() error { return w.cur.err }

// SkipDir causes the currently visited directory to be skipped: Step
// will not descend into it. It has no effect if the current entry is
// not a directory.
func (w *Walker) SkipDir() { w.descend = false }

// isDir reports whether the current entry's permission bits mark it as
// a directory, the only filesystem-type signal the wire protocol
// carries.
func (a Attrs) isDir() bool {
	return a.Permissions != nil && *a.Permissions&0o170000 == 0o040000
}

// Step advances the Walker to the next entry and reports whether there
// was one. Use it as the condition of a for loop; Path/Attrs/Err then
// describe the entry it advanced to.
func (w *Walker) Step(ctx context.Context) bool {
	if w.descend && w.cur.err == nil && w.cur.attrs.isDir() {
		entries, err := w.c.ReadDir(ctx, w.cur.path)
		if err != nil {
			w.cur.err = err
			w.stack = append(w.stack, w.cur)
		} else {
			for i := len(entries) - 1; i >= 0; i-- {
				name := entries[i].Filename
				if name == "." || name == ".." {
					continue
				}
				w.stack = append(w.stack, walkItem{
					path:  path.Join(w.cur.path, name),
					name:  name,
					attrs: entries[i].Attrs,
				})
			}
		}
	}

	if len(w.stack) == 0 {
		return false
	}

	i := len(w.stack) - 1
	w.cur = w.stack[i]
	w.stack = w.stack[:i]
	w.descend = true
	return true
}
