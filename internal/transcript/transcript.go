// Package transcript persists simulation runs to disk: one directory per
// run, a JSON and a plain-text transcript per conversation, and a combined
// results file for the whole batch.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dialogsim/dialogsim/internal/models"
)

// sanitize replaces characters that are unsafe in filenames.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// RunDir returns the directory for one run's transcripts.
func RunDir(baseDir string, ts time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("simulation_%s", ts.Format("20060102-150405")))
}

// Filename returns the transcript filename for a conversation.
func Filename(conversationID string, ext string) string {
	return fmt.Sprintf("%s.%s", sanitizeName(conversationID), ext)
}

// Writer persists one run's artifacts under a timestamped directory.
type Writer struct {
	dir string
}

// NewWriter creates the run directory under baseDir.
func NewWriter(baseDir string, ts time.Time) (*Writer, error) {
	dir := RunDir(baseDir, ts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the run directory path.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteConversation writes one conversation as JSON plus a readable text
// transcript. Returns the JSON path.
func (w *Writer) WriteConversation(conv *models.SimulatedConversation) (string, error) {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}

	jsonPath := filepath.Join(w.dir, Filename(conv.ID, "json"))
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write conversation: %w", err)
	}

	txtPath := filepath.Join(w.dir, Filename(conv.ID, "txt"))
	if err := os.WriteFile(txtPath, []byte(renderText(conv)), 0o644); err != nil {
		return "", fmt.Errorf("write text transcript: %w", err)
	}

	return jsonPath, nil
}

// WriteResults writes the combined batch output: every conversation, every
// score, and the run summary.
func (w *Writer) WriteResults(result *BatchOutput) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}

	path := filepath.Join(w.dir, "eval_output.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}

// BatchOutput is the shape of eval_output.json.
type BatchOutput struct {
	SpecName      string                         `json:"spec_name"`
	GeneratedAt   time.Time                      `json:"generated_at"`
	Conversations []*models.SimulatedConversation `json:"conversations"`
	Scores        []*models.ConversationScore    `json:"scores,omitempty"`
	Summary       *models.RunSummary             `json:"summary,omitempty"`
}

func renderText(conv *models.SimulatedConversation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation: %s\n", conv.ID)
	fmt.Fprintf(&b, "Test case: %s\n", conv.SourceTestCase)
	if conv.Failed() {
		fmt.Fprintf(&b, "Error: %s\n", conv.ErrorMsg)
	}
	b.WriteString("\n")
	b.WriteString(conv.Transcript())
	return b.String()
}
