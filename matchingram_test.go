package matchingram_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	matchingram "github.com/Hentioe/matchingram"
	"github.com/Hentioe/matchingram/rules/message"
)

func TestCompileAndMatchHappyPath(t *testing.T) {
	rule, err := matchingram.Compile(`(message.from.is_bot) or (message.text any {"移动" "联通"})`)
	require.NoError(t, err)

	view := message.NewDefaultView(&message.Message{Text: "我是联通客服"})
	require.True(t, matchingram.Match(rule, view))

	view2 := message.NewDefaultView(&message.Message{Text: "nothing interesting here"})
	require.False(t, matchingram.Match(rule, view2))
}

func TestValidateReportsCompileErrorsWithoutARule(t *testing.T) {
	err := matchingram.Validate(`(message.from.is_bot eq 1)`)
	require.Error(t, err)
}

func TestValidateAcceptsWellFormedRule(t *testing.T) {
	err := matchingram.Validate(`(message.from.id gt 0)`)
	require.NoError(t, err)
}

func TestCompiledRuleIsReusableAcrossManyMessages(t *testing.T) {
	rule, err := matchingram.Compile(`(message.from.id eq 42)`)
	require.NoError(t, err)

	for i := int64(0); i < 100; i++ {
		view := message.NewDefaultView(&message.Message{From: &message.User{ID: i}})
		require.Equal(t, i == 42, matchingram.Match(rule, view))
	}
}

// A compiled rule must be safe to evaluate concurrently without locks
// (spec §5).
func TestCompiledRuleIsSafeForConcurrentEvaluation(t *testing.T) {
	rule, err := matchingram.Compile(`(message.text any {"a" "b" "c"})`)
	require.NoError(t, err)

	done := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		go func(i int) {
			view := message.NewDefaultView(&message.Message{Text: "xxbxx"})
			done <- matchingram.Match(rule, view)
		}(i)
	}
	for i := 0; i < 50; i++ {
		require.True(t, <-done)
	}
}
