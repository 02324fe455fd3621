package relationship

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageFor_Boundaries(t *testing.T) {
	cases := map[int]string{
		-3:      "Stranger",
		0:       "Stranger",
		100:     "Stranger",
		101:     "Acquaintance",
		300:     "Acquaintance",
		301:     "Friend",
		700:     "Friend",
		701:     "Close Friend",
		1600:    "Close Friend",
		1601:    "Sweetheart",
		3000:    "Sweetheart",
		3001:    "Lover",
		4999:    "Lover",
		5000:    "Soulmate",
		1000000: "Soulmate",
	}
	for score, name := range cases {
		assert.Equal(t, name, StageFor(score).Name, "score %d", score)
	}
}

func TestStageFor_Monotonic(t *testing.T) {
	prev := StageFor(0).Level
	for score := 0; score <= 7000; score++ {
		level := StageFor(score).Level
		assert.GreaterOrEqual(t, level, prev, "stage went down at %d", score)
		prev = level
	}
}

func TestStagesTableIsContiguous(t *testing.T) {
	for i := 1; i < len(Stages); i++ {
		assert.Equal(t, Stages[i-1].Max+1, Stages[i].Min, "gap before %s", Stages[i].Name)
		assert.Equal(t, i, Stages[i].Level)
		assert.NotEmpty(t, Stages[i].Instruction)
	}
	assert.Equal(t, -1, Stages[len(Stages)-1].Max)
}

func TestProgress(t *testing.T) {
	assert.InDelta(t, 0.0, Progress(0), 0.001)
	assert.InDelta(t, 50.0/101.0, Progress(50), 0.001)
	assert.InDelta(t, 0.0, Progress(101), 0.001)
	assert.Equal(t, 1.0, Progress(9000))
}

func TestNextStage(t *testing.T) {
	next, ok := NextStage(StageFor(0))
	assert.True(t, ok)
	assert.Equal(t, "Acquaintance", next.Name)

	_, ok = NextStage(StageFor(5000))
	assert.False(t, ok)
}

func TestProfileValidate(t *testing.T) {
	assert.NoError(t, NewProfile("abc").Validate())
	assert.ErrorIs(t, Profile{}.Validate(), ErrInvalidProfile)
	assert.ErrorIs(t, Profile{ID: "a", TotalDateCount: -1}.Validate(), ErrInvalidProfile)
}
