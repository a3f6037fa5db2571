package display

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rivo/tview"
)

func TestDocument_TargetWritesElement(t *testing.T) {
	doc := NewDocument(TimeElementID)
	target := doc.Target(TimeElementID)

	if err := target.SetText("12:00:00"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}

	el, ok := doc.Element(TimeElementID)
	if !ok {
		t.Fatal("time element missing")
	}
	if got := el.Text(); got != "12:00:00" {
		t.Errorf("Text() = %q, want 12:00:00", got)
	}
}

func TestDocument_MissingElement(t *testing.T) {
	doc := NewDocument("clock")
	target := doc.Target(TimeElementID)

	err := target.SetText("12:00:00")
	if !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("SetText() error = %v, want ErrElementNotFound", err)
	}
	if !strings.Contains(err.Error(), `"time"`) {
		t.Errorf("error should name the missing id, got %q", err.Error())
	}

	el, _ := doc.Element("clock")
	if el.Text() != "" {
		t.Errorf("unrelated element changed to %q", el.Text())
	}
}

func TestDocument_TargetResolvesLazily(t *testing.T) {
	doc := NewDocument()
	target := doc.Target(TimeElementID)

	if err := target.SetText("early"); !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("SetText() before Add error = %v, want ErrElementNotFound", err)
	}

	el := doc.Add(TimeElementID)
	if err := target.SetText("late"); err != nil {
		t.Fatalf("SetText() after Add error = %v", err)
	}
	if el.Text() != "late" {
		t.Errorf("Text() = %q, want late", el.Text())
	}

	doc.Remove(TimeElementID)
	if err := target.SetText("gone"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("SetText() after Remove error = %v, want ErrElementNotFound", err)
	}
}

func TestDocument_AddReturnsExisting(t *testing.T) {
	doc := NewDocument(TimeElementID)
	first, _ := doc.Element(TimeElementID)
	if got := doc.Add(TimeElementID); got != first {
		t.Error("Add() should return the existing element")
	}
	if first.ID() != TimeElementID {
		t.Errorf("ID() = %q, want %q", first.ID(), TimeElementID)
	}
}

func TestElement_ConcurrentWrites(t *testing.T) {
	doc := NewDocument(TimeElementID)
	target := doc.Target(TimeElementID)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = target.SetText(fmt.Sprintf("t%d", i))
		}(i)
	}
	wg.Wait()

	el, _ := doc.Element(TimeElementID)
	if !strings.HasPrefix(el.Text(), "t") {
		t.Errorf("Text() = %q, want one of the written values", el.Text())
	}
}

func TestWriter_SetText(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.SetText("12:00:00"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if err := w.SetText("12:00:01"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}

	if got, want := buf.String(), "12:00:00\n12:00:01\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWriter_PropagatesError(t *testing.T) {
	w := NewWriter(failingWriter{})
	if err := w.SetText("x"); err == nil {
		t.Error("SetText() error = nil, want write error")
	}
}

func TestTextView_DirectUpdate(t *testing.T) {
	view := tview.NewTextView()
	target := NewTextView(nil, view)

	if err := target.SetText("12:00:00"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if got := view.GetText(true); got != "12:00:00" {
		t.Errorf("GetText() = %q, want 12:00:00", got)
	}
}

func TestNewTimeScreen(t *testing.T) {
	app, target, status := NewTimeScreen("time")
	if app == nil || target == nil || status == nil {
		t.Fatal("NewTimeScreen returned nil")
	}
	if target.app != app || status.app != app {
		t.Error("views should queue updates on the returned application")
	}
	if target.view == status.view {
		t.Error("status line should be a separate view from the time")
	}
	if got := target.view.GetText(true); got != "" {
		t.Errorf("initial text = %q, want empty", got)
	}
	if got := status.view.GetText(true); got != "" {
		t.Errorf("initial status = %q, want empty", got)
	}
}
