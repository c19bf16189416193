// Package sanitize validates a newline-delimited batch of wearable readings
// and strips the redaction-target fields before the batch is admitted as a
// replay source.
package sanitize

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// OutputName is the fixed cleaned-batch file name, written next to the input.
const OutputName = "oura_processed.jsonl"

// redacted lists the fields removed from every cleaned entry.
var redacted = []string{"class_5_min", "met"}

// Issue is one reported finding tied to an input line.
type Issue struct {
	Line    int
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// Report is the outcome of one sanitation run. Problems invalidate the run;
// Warnings do not.
type Report struct {
	InputPath   string
	OutputPath  string
	LinesRead   int
	EntriesKept int
	Problems    []Issue
	Warnings    []Issue
}

// Valid reports whether the run completed without invalidating problems.
func (r Report) Valid() bool {
	return len(r.Problems) == 0
}

// Summary renders the human-readable outcome, findings first.
func (r Report) Summary() string {
	var b strings.Builder
	for _, p := range r.Problems {
		fmt.Fprintf(&b, "%s\n", p)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	if r.Valid() {
		b.WriteString("All lines are valid JSON.\n")
	} else {
		b.WriteString("Some lines are invalid JSON.\n")
	}
	fmt.Fprintf(&b, "Processed entries saved to %s\n", r.OutputPath)
	return b.String()
}

// Run processes every line of the batch at inputPath and writes the cleaned
// entries to the sibling output file. Re-running on the same input produces
// byte-identical output. The returned error covers I/O only; validation
// findings live in the Report.
func Run(inputPath string) (Report, error) {
	report := Report{
		InputPath:  inputPath,
		OutputPath: filepath.Join(filepath.Dir(inputPath), OutputName),
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return report, fmt.Errorf("opening batch file: %w", err)
	}
	defer in.Close()

	var cleaned [][]byte
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		report.LinesRead = line
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		entry, findings := processLine(line, raw)
		for _, f := range findings {
			if f.invalid {
				report.Problems = append(report.Problems, f.Issue)
			} else {
				report.Warnings = append(report.Warnings, f.Issue)
			}
		}
		if entry != nil {
			cleaned = append(cleaned, entry)
			report.EntriesKept++
		}
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("reading batch file: %w", err)
	}

	if err := writeOutput(report.OutputPath, cleaned); err != nil {
		return report, err
	}
	return report, nil
}

type finding struct {
	Issue
	invalid bool
}

func problemf(line int, format string, args ...any) finding {
	return finding{Issue: Issue{Line: line, Message: fmt.Sprintf(format, args...)}, invalid: true}
}

func warningf(line int, format string, args ...any) finding {
	return finding{Issue: Issue{Line: line, Message: fmt.Sprintf(format, args...)}}
}

// processLine applies the structural contract to one non-blank line. It
// returns the cleaned entry to keep (nil when the line is dropped) plus any
// findings it raised.
func processLine(line int, raw []byte) ([]byte, []finding) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		if json.Valid(raw) {
			// Well-formed JSON that is not an object cannot carry 'data'.
			return nil, []finding{problemf(line, "missing 'data' key")}
		}
		return nil, []finding{problemf(line, "invalid JSON: %v", err)}
	}

	dataRaw, ok := obj["data"]
	if !ok {
		return nil, []finding{problemf(line, "missing 'data' key")}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(dataRaw, &items); err != nil || len(items) != 1 {
		return nil, []finding{warningf(line, "'data' is not a list with exactly one entry")}
	}

	entry, keys, err := redactEntry(items[0], redacted)
	if err != nil {
		return nil, []finding{warningf(line, "entry in 'data' is not an object")}
	}

	var findings []finding
	for _, field := range redacted {
		if _, present := keys[field]; !present {
			findings = append(findings, warningf(line, "entry in 'data' is missing %q field", field))
		}
	}
	return entry, findings
}

// redactEntry re-emits the entry object without the dropped fields, preserving
// the original key order and value bytes. It also reports the keys seen.
func redactEntry(raw json.RawMessage, drop []string) ([]byte, map[string]struct{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("entry is not a JSON object")
	}

	keys := make(map[string]struct{})
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := keyTok.(string)
		keys[key] = struct{}{}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if slices.Contains(drop, key) {
			continue
		}

		if !first {
			buf.WriteByte(',')
		}
		first = false
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), keys, nil
}

func writeOutput(path string, cleaned [][]byte) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	w := bufio.NewWriter(out)
	for _, entry := range cleaned {
		w.Write(entry)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}
