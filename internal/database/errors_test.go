package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbpool/internal/errs"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		state string
		want  Severity
	}{
		{"08S01", SeverityCritical},
		{"08S02", SeverityCritical},
		{"HY000", SeverityCritical},
		{"08001", SeverityNormal},
		{"23000", SeverityNormal},
		{"42S02", SeverityNormal},
		{"HYT00", SeverityNormal},
		{"01004", SeverityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.state))
		})
	}
}

func TestParseError(t *testing.T) {
	e := ParseError(Diagnostic{State: "08S01", Message: "TCP Provider: An existing connection was forcibly closed"})
	assert.True(t, e.IsCritical())
	assert.Equal(t, "SQLState:08S01, MessageText:TCP Provider: An existing connection was forcibly closed", e.Error())

	empty := ParseError(Diagnostic{Message: "no record"})
	assert.Equal(t, StateGeneralError, empty.State)
	assert.True(t, empty.IsCritical())
}

func TestFault(t *testing.T) {
	f := &Fault{Column: 3, Err: ParseError(Diagnostic{State: "22018", Message: "bad cast"})}
	assert.False(t, f.IsCritical())
	assert.Equal(t, "read column 3: SQLState:22018, MessageText:bad cast", f.Error())

	wrapped := fmt.Errorf("parse: %w", f)
	de, ok := AsDriverError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "22018", de.State)

	_, ok = AsDriverError(assert.AnError)
	assert.False(t, ok)
}

func TestStatus(t *testing.T) {
	critical := ParseError(Diagnostic{State: StateLinkUnusable})
	normal := ParseError(Diagnostic{State: StateIntegrity})

	assert.True(t, errs.IsLinkFailure(status("execute", critical)))
	assert.True(t, errs.IsQueryFailed(status("execute", normal)))
	assert.ErrorIs(t, status("execute", normal), normal)
}
