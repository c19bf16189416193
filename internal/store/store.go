// Package store provides replay access to a newline-delimited JSON record file.
// The store never runs out of records: once the file is exhausted it reopens it
// and replays from the first line.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
)

// Failure classes surfaced to the caller. Anything else coming out of Next is
// wrapped as-is and treated as an unexpected store failure.
var (
	// ErrMissing reports that the source file does not exist. This is a
	// configuration error, not a transient condition.
	ErrMissing = errors.New("source file missing")

	// ErrMalformed reports that the source cannot be read as line-delimited
	// text (for example a single oversized line).
	ErrMalformed = errors.New("source file not line-delimited JSON")
)

// Record is one parsed activity-summary object. Fields beyond the ones the
// consumer extracts are carried through untouched.
type Record map[string]any

// readState tracks where the replay loop is between calls to Next.
type readState int

const (
	stateReading readState = iota // scanning lines of the open file
	stateReopen                   // file exhausted, reopen before the next yield
)

// Option configures optional behaviour for the Store.
type Option func(*Store)

// WithLogger overrides the logger used to report skipped lines and passes.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store yields Records from a jsonl file indefinitely.
type Store struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	state   readState
	line    int
	pass    int
	logger  *log.Logger
}

// Open validates that the source file exists and prepares the first pass.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		state:  stateReopen,
		logger: log.New(log.Writer(), "[store] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.reopen(); err != nil {
		return nil, err
	}
	return s, nil
}

// Next returns the next well-formed Record, reopening the file whenever the
// current pass is exhausted. Malformed lines are logged, counted, and skipped.
func (s *Store) Next() (Record, error) {
	for {
		if s.state == stateReopen {
			if err := s.reopen(); err != nil {
				return nil, err
			}
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				s.Close()
				if errors.Is(err, bufio.ErrTooLong) {
					return nil, fmt.Errorf("%w: line %d of %s: %v", ErrMalformed, s.line+1, s.path, err)
				}
				return nil, fmt.Errorf("reading %s: %w", s.path, err)
			}
			s.logger.Printf("pass %d complete (%d lines), restarting %s", s.pass, s.line, s.path)
			s.Close()
			s.state = stateReopen
			continue
		}

		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec Record
		err := json.Unmarshal(line, &rec)
		if err == nil && rec == nil {
			err = errors.New("not a JSON object")
		}
		if err != nil {
			s.logger.Printf("skipping malformed line %d of %s: %v", s.line, s.path, err)
			recordLineSkipped(s.path)
			continue
		}
		return rec, nil
	}
}

// Path reports the source path the store replays.
func (s *Store) Path() string { return s.path }

// Close releases the currently open file handle. The store may be reused after
// Close; the next call to Next reopens the source.
func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.scanner = nil
	s.state = stateReopen
	return err
}

func (s *Store) reopen() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMissing, s.path)
		}
		return fmt.Errorf("opening %s: %w", s.path, err)
	}
	s.file = f
	s.scanner = bufio.NewScanner(f)
	s.state = stateReading
	s.line = 0
	s.pass++
	recordPass(s.path)
	s.logger.Printf("opened %s (pass %d)", s.path, s.pass)
	return nil
}
