package commands

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/naufalh/wabot/internal/engine"
)

// slotSymbols is the reel for the slot toy.
var slotSymbols = []string{"🍒", "🍋", "🍇", "⭐", "🔔", "7️⃣"}

// quizzes is the built-in riddle pool for the quiz game. Answers are matched
// case-insensitively.
var quizzes = []struct {
	question string
	answer   string
}{
	{"I speak without a mouth and hear without ears. What am I?", "echo"},
	{"What has keys but opens no locks?", "keyboard"},
	{"What gets wetter the more it dries?", "towel"},
	{"What has to be broken before you can use it?", "egg"},
	{"The more you take, the more you leave behind. What are they?", "footsteps"},
}

// games tracks the pending answer per (chat, sender) for the math and quiz
// games. One value per player per chat; starting a new round replaces any
// unanswered one.
type games struct {
	mu   sync.Mutex
	rng  *rand.Rand
	math map[string]int
	quiz map[string]string
}

func newGames(seed int64) *games {
	return &games{
		rng:  rand.New(rand.NewSource(seed)),
		math: make(map[string]int),
		quiz: make(map[string]string),
	}
}

func gameKey(req *engine.Request) string {
	return req.ChatID + "|" + req.Sender
}

func (g *games) startMath(req *engine.Request) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, b := g.rng.Intn(90)+10, g.rng.Intn(90)+10
	var question string
	var answer int
	switch g.rng.Intn(3) {
	case 0:
		question, answer = fmt.Sprintf("%d + %d", a, b), a+b
	case 1:
		question, answer = fmt.Sprintf("%d - %d", a, b), a-b
	default:
		a, b = g.rng.Intn(12)+2, g.rng.Intn(12)+2
		question, answer = fmt.Sprintf("%d × %d", a, b), a*b
	}
	g.math[gameKey(req)] = answer
	return question
}

func (g *games) checkMath(req *engine.Request, guess int) (correct, pending bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := gameKey(req)
	answer, ok := g.math[key]
	if !ok {
		return false, false
	}
	if guess == answer {
		delete(g.math, key)
		return true, true
	}
	return false, true
}

func (g *games) startQuiz(req *engine.Request) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	q := quizzes[g.rng.Intn(len(quizzes))]
	g.quiz[gameKey(req)] = q.answer
	return q.question
}

func (g *games) checkQuiz(req *engine.Request, guess string) (correct, pending bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := gameKey(req)
	answer, ok := g.quiz[key]
	if !ok {
		return false, false
	}
	if strings.EqualFold(strings.TrimSpace(guess), answer) {
		delete(g.quiz, key)
		return true, true
	}
	return false, true
}

func registerToys(r *engine.Router, d Deps) {
	g := newGames(rand.Int63())

	r.Register("rate", func(ctx context.Context, req *engine.Request) error {
		subject := strings.Join(req.Args, " ")
		if subject == "" {
			return engine.NewUsageError("rate <something>")
		}
		// Deterministic per subject so repeat asks get the same score.
		h := fnv.New32a()
		h.Write([]byte(strings.ToLower(subject)))
		score := h.Sum32() % 101
		return req.Reply(ctx, fmt.Sprintf("%s: %d/100", subject, score))
	})

	r.Register("coinflip", func(ctx context.Context, req *engine.Request) error {
		g.mu.Lock()
		heads := g.rng.Intn(2) == 0
		g.mu.Unlock()
		if heads {
			return req.Reply(ctx, "heads")
		}
		return req.Reply(ctx, "tails")
	})

	r.Register("slot", func(ctx context.Context, req *engine.Request) error {
		g.mu.Lock()
		a := slotSymbols[g.rng.Intn(len(slotSymbols))]
		b := slotSymbols[g.rng.Intn(len(slotSymbols))]
		c := slotSymbols[g.rng.Intn(len(slotSymbols))]
		g.mu.Unlock()
		line := fmt.Sprintf("[ %s | %s | %s ]", a, b, c)
		if a == b && b == c {
			return req.Reply(ctx, line+"\njackpot!")
		}
		return req.Reply(ctx, line+"\nbetter luck next time")
	})

	r.Register("emoji", func(ctx context.Context, req *engine.Request) error {
		if len(req.Args) != 1 {
			return engine.NewUsageError("emoji <emoji>")
		}
		big := fmt.Sprintf("https://emojik.vercel.app/s/%s?size=256", url.PathEscape(req.Args[0]))
		return req.Gateway().SendImageURL(ctx, req.ChatID, big, "", &req.Event)
	})

	r.Register("emojimix", func(ctx context.Context, req *engine.Request) error {
		if len(req.Args) != 1 || !strings.Contains(req.Args[0], "+") {
			return engine.NewUsageError("emojimix <emoji>+<emoji>")
		}
		parts := strings.SplitN(req.Args[0], "+", 2)
		left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if left == "" || right == "" {
			return engine.NewUsageError("emojimix <emoji>+<emoji>")
		}
		mix := fmt.Sprintf("https://emojik.vercel.app/s/%s_%s?size=256",
			url.PathEscape(left), url.PathEscape(right))
		return req.Gateway().SendImageURL(ctx, req.ChatID, mix, left+" + "+right, &req.Event)
	})

	r.Register("math", func(ctx context.Context, req *engine.Request) error {
		question := g.startMath(req)
		return req.Reply(ctx, fmt.Sprintf("how much is %s?\nanswer with %sguess <number>", question, d.Prefix))
	})

	r.Register("guess", func(ctx context.Context, req *engine.Request) error {
		if len(req.Args) != 1 {
			return engine.NewUsageError("guess <number>")
		}
		n, err := strconv.Atoi(req.Args[0])
		if err != nil {
			return engine.NewUsageError("guess <number>")
		}
		correct, pending := g.checkMath(req, n)
		switch {
		case !pending:
			return req.Reply(ctx, "no math round running, start one with "+d.Prefix+"math")
		case correct:
			return req.Reply(ctx, "correct!")
		default:
			return req.Reply(ctx, "wrong, try again")
		}
	})

	r.Register("quiz", func(ctx context.Context, req *engine.Request) error {
		question := g.startQuiz(req)
		return req.Reply(ctx, question+"\nanswer with "+d.Prefix+"answer <word>")
	})

	r.Register("answer", func(ctx context.Context, req *engine.Request) error {
		if len(req.Args) == 0 {
			return engine.NewUsageError("answer <word>")
		}
		correct, pending := g.checkQuiz(req, strings.Join(req.Args, " "))
		switch {
		case !pending:
			return req.Reply(ctx, "no quiz running, start one with "+d.Prefix+"quiz")
		case correct:
			return req.Reply(ctx, "correct!")
		default:
			return req.Reply(ctx, "wrong, try again")
		}
	})
}
