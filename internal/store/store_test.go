package store

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oura.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func testLogger(t *testing.T) *log.Logger {
	t.Helper()
	return log.New(testWriter{t}, "", 0)
}

func TestNextYieldsWellFormedLinesInOrder(t *testing.T) {
	path := writeSource(t, `{"day":"2022-01-28","total_calories":2978}
{"day":"2022-01-29","total_calories":3012}
`)

	s, err := Open(path, WithLogger(testLogger(t)))
	require.NoError(t, err)
	defer s.Close()

	first, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, "2022-01-28", first["day"])

	second, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, "2022-01-29", second["day"])
}

func TestNextSkipsMalformedLines(t *testing.T) {
	path := writeSource(t, `{"day":"2022-01-28"}
{bad json
[1,2,3]
null

{"day":"2022-01-29"}
`)

	s, err := Open(path, WithLogger(testLogger(t)))
	require.NoError(t, err)
	defer s.Close()

	first, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, "2022-01-28", first["day"])

	second, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, "2022-01-29", second["day"])
}

func TestNextRestartsAfterExhaustingTheFile(t *testing.T) {
	path := writeSource(t, `{"day":"2022-01-28"}
{"day":"2022-01-29"}
`)

	s, err := Open(path, WithLogger(testLogger(t)))
	require.NoError(t, err)
	defer s.Close()

	var days []string
	for range 5 {
		rec, err := s.Next()
		require.NoError(t, err)
		days = append(days, rec["day"].(string))
	}
	require.Equal(t, []string{"2022-01-28", "2022-01-29", "2022-01-28", "2022-01-29", "2022-01-28"}, days)
}

func TestNextReopensAfterClose(t *testing.T) {
	path := writeSource(t, `{"day":"2022-01-28"}
{"day":"2022-01-29"}
`)

	s, err := Open(path, WithLogger(testLogger(t)))
	require.NoError(t, err)
	defer s.Close()

	first, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, "2022-01-28", first["day"])

	require.NoError(t, s.Close())

	// A closed store restarts from the first line on the next pull.
	again, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, "2022-01-28", again["day"])
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.jsonl"), WithLogger(testLogger(t)))
	require.ErrorIs(t, err, ErrMissing)
}

func TestNextReportsMissingFileOnReopen(t *testing.T) {
	path := writeSource(t, `{"day":"2022-01-28"}
`)

	s, err := Open(path, WithLogger(testLogger(t)))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Next()
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	_, err = s.Next()
	require.ErrorIs(t, err, ErrMissing)
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
