package user

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinSkills(t *testing.T) {
	require.Equal(t, "Go,SQL,Docker", JoinSkills([]string{" Go", "SQL ", "", "  ", "Docker"}))
	require.Equal(t, "", JoinSkills(nil))
}

func TestSplitSkills(t *testing.T) {
	require.Equal(t, []string{"Go", "SQL", "Docker"}, SplitSkills("Go, SQL ,,Docker"))
	require.Equal(t, []string{}, SplitSkills("  "))
}

func TestSkillsRoundTrip(t *testing.T) {
	skills := []string{"Go", "SQL", "Docker"}
	require.Equal(t, skills, SplitSkills(JoinSkills(skills)))
}

func TestValidRole(t *testing.T) {
	require.True(t, ValidRole(RoleJobSeeker))
	require.True(t, ValidRole(RoleRecruiter))
	require.False(t, ValidRole("admin"))
	require.False(t, ValidRole(""))
}

func TestValidTeamSize(t *testing.T) {
	for _, b := range TeamSizeBuckets {
		require.True(t, ValidTeamSize(b))
	}
	require.False(t, ValidTeamSize("a few"))
	require.False(t, ValidTeamSize(""))
}
