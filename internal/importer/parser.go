// Package importer batch-loads recorded debriefing transcripts from disk and
// runs them through the rule-based engine. It exists for re-scoring archives
// and for seeding a fresh database from exported encounter files.
package importer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/medsim-lab/debriefd/internal/events"
)

// ParseEncounterFile reads a single exported encounter (one JSON document in
// the transcript-stored event shape).
func ParseEncounterFile(path string) (events.TranscriptStored, error) {
	var evt events.TranscriptStored

	data, err := os.ReadFile(path)
	if err != nil {
		return evt, fmt.Errorf("read: %w", err)
	}
	if err := json.Unmarshal(data, &evt); err != nil {
		return evt, fmt.Errorf("parse %s: %w", path, err)
	}
	if evt.Transcript == "" && len(evt.Segments) == 0 {
		return evt, fmt.Errorf("parse %s: no transcript or segments", path)
	}
	if evt.EncounterID == "" {
		evt.EncounterID = encounterIDFromPath(path)
	}
	return evt, nil
}

// ParseEncounterLog reads a JSONL export: one encounter per line. Blank and
// malformed lines are skipped so a partially corrupted export still yields
// its good records.
func ParseEncounterLog(path string) ([]events.TranscriptStored, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var encounters []events.TranscriptStored

	lineNo := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB line buffer
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var evt events.TranscriptStored
		if err := json.Unmarshal([]byte(raw), &evt); err != nil {
			continue // skip malformed lines
		}
		if evt.Transcript == "" && len(evt.Segments) == 0 {
			continue
		}
		if evt.EncounterID == "" {
			evt.EncounterID = fmt.Sprintf("%s#%d", encounterIDFromPath(path), lineNo)
		}
		encounters = append(encounters, evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return encounters, nil
}

// encounterIDFromPath derives a stable fallback ID from the file name.
func encounterIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
