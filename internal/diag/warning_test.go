package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mvp-joe/featurescan/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_PreservesOrder(t *testing.T) {
	t.Parallel()

	var c Collector
	assert.Nil(t, c.Items())

	c.Addf("a", SeverityWarning, nil, "first %d", 1)
	c.Addf("b", SeverityError, nil, "second")
	c.Addf("c", SeverityInfo, nil, "third")

	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{items[0].Code, items[1].Code, items[2].Code})
	assert.Equal(t, "first 1", items[0].Message)

	// Items is a copy
	items[0].Code = "mutated"
	assert.Equal(t, "a", c.Items()[0].Code)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	ws := []Warning{
		{Code: "i", Severity: SeverityInfo},
		{Code: "w", Severity: SeverityWarning},
		{Code: "e", Severity: SeverityError},
	}
	assert.Len(t, Filter(ws, SeverityInfo), 3)
	assert.Len(t, Filter(ws, SeverityWarning), 2)
	assert.Equal(t, "e", Filter(ws, SeverityError)[0].Code)
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	sev, ok := ParseSeverity("warning")
	assert.True(t, ok)
	assert.Equal(t, SeverityWarning, sev)

	_, ok = ParseSeverity("fatal")
	assert.False(t, ok)
}

func TestWarningError_As(t *testing.T) {
	t.Parallel()

	r := &source.Range{File: "a.js", Start: source.Position{Line: 2, Column: 1}}
	err := fmt.Errorf("scan a.js: %w", NewWarningError(CodeParseError, SeverityError, "unexpected token", r))

	var we *WarningError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, CodeParseError, we.Warning.Code)
	assert.Equal(t, SeverityError, we.Warning.Severity)
	assert.Contains(t, err.Error(), "a.js:3:2")
	assert.Contains(t, err.Error(), "unexpected token")
}
