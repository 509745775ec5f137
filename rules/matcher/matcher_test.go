package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Hentioe/matchingram/rules/ast"
	"github.com/Hentioe/matchingram/rules/compiler"
	"github.com/Hentioe/matchingram/rules/matcher"
	"github.com/Hentioe/matchingram/rules/message"
	"github.com/Hentioe/matchingram/rules/schema"
)

func compileOK(t *testing.T, text string) *compiler.Rule {
	t.Helper()
	tree, err := ast.Parse(text)
	require.NoError(t, err)
	rule, err := compiler.Compile(tree, schema.Default)
	require.NoError(t, err)
	return rule
}

// spec §8, concrete scenario table.
func TestMatcherScenarios(t *testing.T) {
	userA := message.User{ID: 1, FirstName: "A"}

	cases := []struct {
		name string
		rule string
		msg  *message.Message
		want bool
	}{
		{
			"1 new_chat_members present",
			`(message.new_chat_members)`,
			&message.Message{NewChatMembers: []message.User{userA}},
			true,
		},
		{
			"2 new_chat_members absent",
			`(message.new_chat_members)`,
			&message.Message{},
			false,
		},
		{
			"3 any matches one keyword",
			`(message.text any {"关键字1" "关键字2"})`,
			&message.Message{Text: "前缀 关键字2 后缀"},
			true,
		},
		{
			"4 all requires every keyword",
			`(message.text all {"关键字1" "关键字2"})`,
			&message.Message{Text: "前缀 关键字2 后缀"},
			false,
		},
		{
			"5 disjunction of groups",
			`(message.text.size gt 120 and message.from.is_bot) or ` +
				`(not message.from.id in {10086 10010} and message.text any {"移动" "联通"} and message.text any {"我是" "客服"})`,
			&message.Message{From: &message.User{ID: 555, IsBot: false}, Text: "我是联通客服"},
			true,
		},
		{
			"6 eq against missing field is false",
			`(message.text eq "hi")`,
			&message.Message{},
			false,
		},
		{
			"7 negated bare bool",
			`(not message.from.is_bot)`,
			&message.Message{From: &message.User{IsBot: false}},
			true,
		},
		{
			"8 gt and le conjunction",
			`(message.from.id gt 100 and message.from.id le 200)`,
			&message.Message{From: &message.User{ID: 150}},
			true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rule := compileOK(t, c.rule)
			view := message.NewDefaultView(c.msg)
			got := matcher.Match(rule, view)
			require.Equal(t, c.want, got)
		})
	}
}

// spec §9's open question, pinned down by §4.6: an operated condition
// on a missing field is false before negation is applied, for every
// operator — so `not field <op> X` does not become a vacuous match.
func TestMissingFieldIsFalseBeforeNegationForEveryOperator(t *testing.T) {
	ops := []string{
		`message.text eq "x"`,
		`message.from.id gt 1`,
		`message.from.id ge 1`,
		`message.from.id le 1`,
		`message.from.id in {1 2}`,
		`message.text any {"x"}`,
		`message.text all {"x"}`,
		`message.text hd "x"`,
	}
	for _, cond := range ops {
		t.Run(cond, func(t *testing.T) {
			rule := compileOK(t, "(not "+cond+")")
			got := matcher.Match(rule, message.NewDefaultView(&message.Message{}))
			require.False(t, got, "negated operated condition on missing field must stay false")
		})
	}
}

// recordingView counts each Get call so the test can assert
// short-circuit observability (spec §8 property 3, §4.6 "ordering").
type recordingView struct {
	msg      *message.Message
	accessed []schema.FieldID
}

func (v *recordingView) Get(id schema.FieldID) (message.FieldValue, bool) {
	v.accessed = append(v.accessed, id)
	return message.NewDefaultView(v.msg).Get(id)
}

func TestShortCircuitWithinGroup(t *testing.T) {
	rule := compileOK(t, `(message.from.is_bot and message.text eq "hi")`)
	view := &recordingView{msg: &message.Message{From: &message.User{IsBot: false}, Text: "hi"}}

	got := matcher.Match(rule, view)

	require.False(t, got)
	require.Len(t, view.accessed, 1, "the second condition's field must not be read once the first is false")
}

func TestShortCircuitAcrossGroups(t *testing.T) {
	rule := compileOK(t, `(message.from.is_bot) or (message.text eq "hi")`)
	view := &recordingView{msg: &message.Message{From: &message.User{IsBot: true}, Text: "hi"}}

	got := matcher.Match(rule, view)

	require.True(t, got)
	require.Len(t, view.accessed, 1, "the second group must not be evaluated once the first group matches")
}

func TestDeterminism(t *testing.T) {
	rule := compileOK(t, `(message.from.id gt 100 and message.from.id le 200)`)
	msg := &message.Message{From: &message.User{ID: 150}}
	first := matcher.Match(rule, message.NewDefaultView(msg))
	for i := 0; i < 5; i++ {
		require.Equal(t, first, matcher.Match(rule, message.NewDefaultView(msg)))
	}
}
