package display

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// TimeElementID is the element id the time client writes to
const TimeElementID = "time"

// ErrElementNotFound is returned when writing to an element id the document does not have
var ErrElementNotFound = errors.New("display element not found")

// Target receives the text the client renders
type Target interface {
	SetText(text string) error
}

// TargetFunc adapts a function to the Target interface
type TargetFunc func(text string) error

// SetText calls f
func (f TargetFunc) SetText(text string) error {
	return f(text)
}

// Element is a single addressable piece of visible text
type Element struct {
	id string

	mu   sync.RWMutex
	text string
}

// ID returns the element id
func (e *Element) ID() string {
	return e.id
}

// Text returns the current visible text
func (e *Element) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

// SetText replaces the visible text. Concurrent writers race; the last write wins.
func (e *Element) SetText(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
	return nil
}

// Document is a set of elements addressable by id, safe for concurrent use
type Document struct {
	mu       sync.RWMutex
	elements map[string]*Element
}

// NewDocument creates a document holding an empty element for each id
func NewDocument(ids ...string) *Document {
	d := &Document{
		elements: make(map[string]*Element, len(ids)),
	}
	for _, id := range ids {
		d.elements[id] = &Element{id: id}
	}
	return d
}

// Add creates (or returns the existing) element with the given id
func (d *Document) Add(id string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.elements[id]; ok {
		return e
	}
	e := &Element{id: id}
	d.elements[id] = e
	return e
}

// Remove deletes the element with the given id, if present
func (d *Document) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, id)
}

// Element looks up an element by id
func (d *Document) Element(id string) (*Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.elements[id]
	return e, ok
}

// SetText writes text into the element with the given id
func (d *Document) SetText(id, text string) error {
	e, ok := d.Element(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrElementNotFound, id)
	}
	return e.SetText(text)
}

// Target returns a Target bound to id. The element is resolved on every write.
func (d *Document) Target(id string) Target {
	return TargetFunc(func(text string) error {
		return d.SetText(id, text)
	})
}

// Writer is a Target that prints each value as a line
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer target on w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// SetText writes text followed by a newline
func (w *Writer) SetText(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintln(w.w, text); err != nil {
		return fmt.Errorf("failed to write display line: %w", err)
	}
	return nil
}
