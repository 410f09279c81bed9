package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageState_InitialIsDiscovered(t *testing.T) {
	assert.Equal(t, PageDiscovered, InitialPageState().Status)
}

func TestPageState_LegalTransition(t *testing.T) {
	s := InitialPageState()
	next, err := s.TransitionTo(PagePendingAnalysis)
	assert.NoError(t, err)
	assert.Equal(t, PagePendingAnalysis, next.Status)
}

func TestPageState_IllegalTransitionFails(t *testing.T) {
	s := InitialPageState()
	_, err := s.TransitionTo(PageActive)
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
}

func TestPageState_DeletedIsTerminal(t *testing.T) {
	s := PageState{Status: PageDeleted}
	assert.True(t, s.IsTerminal())
	_, err := s.TransitionTo(PageActive)
	assert.Error(t, err)
}

func TestPageState_ArchivedCanReactivate(t *testing.T) {
	s := PageState{Status: PageArchived}
	next, err := s.TransitionTo(PageActive)
	assert.NoError(t, err)
	assert.Equal(t, PageActive, next.Status)
}

func TestPageState_FullTransitionTable(t *testing.T) {
	for from, edges := range pageTransitions {
		for to := range edges {
			s := PageState{Status: from}
			next, err := s.TransitionTo(to)
			assert.NoError(t, err, "expected %s -> %s to be legal", from, to)
			assert.Equal(t, to, next.Status)
		}
	}
}

func TestPageStatusFromString_NormalizesCase(t *testing.T) {
	status, err := PageStatusFromString("  Active  ")
	assert.NoError(t, err)
	assert.Equal(t, PageActive, status)
}

func TestPageStatusFromString_RejectsUnknown(t *testing.T) {
	_, err := PageStatusFromString("bogus")
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
}
