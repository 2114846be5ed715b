package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffParticipants(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		desired []string
		add     []string
		remove  []string
	}{
		{
			name:    "add and remove",
			current: []string{"alice", "bob"},
			desired: []string{"alice", "carol"},
			add:     []string{"carol"},
			remove:  []string{"bob"},
		},
		{
			name:    "no change",
			current: []string{"alice", "bob"},
			desired: []string{"bob", "alice"},
		},
		{
			name:    "empty desired removes everyone",
			current: []string{"alice", "bob"},
			desired: []string{},
			remove:  []string{"alice", "bob"},
		},
		{
			name:    "duplicates in desired collapse",
			current: []string{"alice"},
			desired: []string{"alice", "bob", "bob"},
			add:     []string{"bob"},
		},
		{
			name:    "empty current adds everyone",
			desired: []string{"alice", "bob"},
			add:     []string{"alice", "bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			add, remove := diffParticipants(tt.current, tt.desired)
			assert.Equal(t, tt.add, add)
			assert.Equal(t, tt.remove, remove)
		})
	}
}

func TestDiffParticipantsIsIdempotent(t *testing.T) {
	current := []string{"alice", "carol"}
	desired := []string{"alice", "carol"}

	add, remove := diffParticipants(current, desired)
	assert.Empty(t, add)
	assert.Empty(t, remove)
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `al\%ice`, likeEscaper.Replace(`al%ice`))
	assert.Equal(t, `al\_ice`, likeEscaper.Replace(`al_ice`))
	assert.Equal(t, `al\\ice`, likeEscaper.Replace(`al\ice`))
	assert.Equal(t, "alice", likeEscaper.Replace("alice"))
}
