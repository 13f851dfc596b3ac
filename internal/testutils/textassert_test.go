package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingT captures Errorf calls so asserter failures can be inspected.
type recordingT struct {
	failures []string
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.failures = append(r.failures, format)
}

func TestTextAsserter_EqualText(t *testing.T) {
	rec := &recordingT{}
	NewTextAsserter(rec).Assert("a\nb\n", "a\nb\n")
	assert.Empty(t, rec.failures)
}

func TestTextAsserter_IgnoresTrailingWhitespaceAndEmptyLines(t *testing.T) {
	rec := &recordingT{}
	NewTextAsserter(rec).Assert("a  \n\nb\n", "a\nb")
	assert.Empty(t, rec.failures)
}

func TestTextAsserter_ReportsDifference(t *testing.T) {
	rec := &recordingT{}
	NewTextAsserter(rec).Assert("a\nb", "a\nc")
	assert.Len(t, rec.failures, 1)
}

func TestJSONAsserter_IgnoresExtraKeysByDefault(t *testing.T) {
	rec := &recordingT{}
	NewJSONAsserter(rec).Assert(`{"a":1,"b":2}`, `{"a":1}`)
	assert.Empty(t, rec.failures)
}

func TestJSONAsserter_ReportsValueMismatch(t *testing.T) {
	rec := &recordingT{}
	NewJSONAsserter(rec).Assert(`{"a":1}`, `{"a":2}`)
	assert.Len(t, rec.failures, 1)
}

func TestJSONAsserter_KeyOrderIndependent(t *testing.T) {
	rec := &recordingT{}
	NewJSONAsserter(rec).Assert(`{"b":2,"a":1}`, `{"a":1,"b":2}`)
	assert.Empty(t, rec.failures)
}
