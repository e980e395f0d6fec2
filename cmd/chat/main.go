// Command chat runs the list assistant in a terminal against the local item store.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"friendlist-be/internal/config"
	"friendlist-be/internal/dto"
	"friendlist-be/internal/pkg/logger"
	"friendlist-be/internal/repository/memory"
	"friendlist-be/internal/service"
	"friendlist-be/pkg/assistant/conversation"
	"friendlist-be/pkg/assistant/prompt"
	"friendlist-be/pkg/auth"
	"friendlist-be/pkg/grounding"
	"friendlist-be/pkg/llm"
	"friendlist-be/pkg/llm/factory"
	"friendlist-be/pkg/localstore"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	userColor   = color.New(color.FgCyan, color.Bold)
	botColor    = color.New(color.FgGreen)
	actionColor = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

const help = `commands:
  /list            show the list
  /accept          accept the last proposal
  /reject          reject the last proposal
  /add <n>         add recommendation n from the last reply
  /done <id>       mark an item done (an id prefix is enough)
  /clear           clear the conversation
  /quit            exit`

type repl struct {
	assistant service.IAssistantService
	items     service.IItemService
	session   *auth.Session
	convID    string
	last      *conversation.Message
}

func main() {
	cfg := config.Load()
	sysLogger := logger.New(logger.Options{
		FilePath:     cfg.App.LogFilePath,
		ConsoleLevel: zap.ErrorLevel,
		FileLevel:    zap.InfoLevel,
	})
	defer sysLogger.Sync()

	local, err := localstore.Open(cfg.App.LocalStorePath)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	items := service.NewItemService(service.ItemServiceDeps{Local: local, Logger: sysLogger})
	defer items.Close()

	provider, err := factory.NewLLMProvider(factory.Params{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		GrokAPIKey:    cfg.Keys.Grok,
		GrokBaseURL:   cfg.Ai.GrokBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		Timeout:       cfg.Ai.Timeout,
	})
	if err != nil {
		log.Fatalf("llm provider: %v", err)
	}

	grounder := grounding.NewGrounder(
		grounding.NewScraper(0),
		grounding.NewPlacesClient(cfg.Keys.GooglePlaces, 0),
		sysLogger,
	)
	assistant := service.NewAssistantService(
		memory.NewConversationRepository(0),
		items,
		grounder,
		provider,
		sysLogger,
		llm.WithTemperature(cfg.Ai.Temperature),
		llm.WithMaxTokens(cfg.Ai.MaxTokens),
		llm.WithWebSearch(cfg.Ai.EnableSearch),
	)

	now := time.Now()
	r := &repl{
		assistant: assistant,
		items:     items,
		session:   &auth.Session{Subject: service.SharedSubject, IssuedAt: now, ExpiresAt: now.Add(24 * time.Hour)},
	}

	ctx := context.Background()
	snap, err := assistant.Start(ctx, r.session)
	if err != nil {
		log.Fatalf("start conversation: %v", err)
	}
	r.convID = snap.ID

	dimColor.Printf("friendlist assistant (%s, %s). /help for commands.\n", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		userColor.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return
			}
			continue
		}

		turn, err := assistant.Submit(ctx, r.session, r.convID, &dto.SubmitTurnRequest{Text: line})
		if err != nil {
			errColor.Println(err)
			continue
		}
		r.last = turn.Reply
		printReply(turn.Reply)
	}
}

func (r *repl) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		dimColor.Println(help)
	case "/list":
		r.printList(ctx)
	case "/clear":
		if _, err := r.assistant.Clear(ctx, r.session, r.convID); err != nil {
			errColor.Println(err)
			return false
		}
		r.last = nil
		dimColor.Println("conversation cleared")
	case "/accept", "/reject":
		r.decide(ctx, fields[0] == "/accept")
	case "/add":
		r.addRecommendation(ctx, fields[1:])
	case "/done":
		if len(fields) < 2 {
			errColor.Println("usage: /done <id>")
			return false
		}
		r.markDone(ctx, fields[1])
	default:
		errColor.Println("unknown command, /help for the list")
	}
	return false
}

func (r *repl) decide(ctx context.Context, accept bool) {
	if r.last == nil || r.last.Proposal == nil {
		errColor.Println("no proposal to decide")
		return
	}

	var (
		res *dto.DecisionResponse
		err error
	)
	if accept {
		res, err = r.assistant.Accept(ctx, r.session, r.convID, r.last.ID)
	} else {
		res, err = r.assistant.Reject(ctx, r.session, r.convID, r.last.ID)
	}
	if err != nil {
		errColor.Println(err)
		return
	}

	actionColor.Printf("proposal %s\n", res.Message.ProposalStatus)
	if n := len(res.Conversation.Messages); n > 0 {
		tail := res.Conversation.Messages[n-1]
		if tail.Role == conversation.RoleAssistant && tail.ID != r.last.ID {
			botColor.Println(tail.Content)
		}
	}
}

func (r *repl) addRecommendation(ctx context.Context, args []string) {
	if r.last == nil || len(r.last.Recommendations) == 0 || len(args) == 0 {
		errColor.Println("usage: /add <n> after a reply with recommendations")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(r.last.Recommendations) {
		errColor.Printf("pick a number between 1 and %d\n", len(r.last.Recommendations))
		return
	}
	if _, err := r.assistant.CommitRecommendation(ctx, r.session, r.convID, r.last.ID, n-1); err != nil {
		errColor.Println(err)
		return
	}
	actionColor.Printf("added %q\n", r.last.Recommendations[n-1].Text)
}

func (r *repl) printList(ctx context.Context) {
	list, err := r.items.List(ctx, dto.ItemFilter{ShowDone: true})
	if err != nil {
		errColor.Println(err)
		return
	}
	if len(list) == 0 {
		dimColor.Println("(empty)")
		return
	}
	for _, it := range list {
		mark := " "
		if it.Done {
			mark = "x"
		}
		fmt.Printf("[%s] %s ", mark, it.Text)
		dimColor.Printf("(%s) %s\n", it.Category, prompt.ShortID(it.Id.String()))
	}
}

func (r *repl) markDone(ctx context.Context, ref string) {
	list, err := r.items.List(ctx, dto.ItemFilter{ShowDone: true})
	if err != nil {
		errColor.Println(err)
		return
	}
	matches := lo.Filter(list, func(it *dto.ItemResponse, _ int) bool {
		return strings.HasPrefix(it.Id.String(), strings.ToLower(ref))
	})
	if len(matches) != 1 {
		errColor.Printf("%d items match %q\n", len(matches), ref)
		return
	}
	if _, err := r.items.SetDone(ctx, matches[0].Id, true); err != nil {
		errColor.Println(err)
		return
	}
	actionColor.Printf("done: %s\n", matches[0].Text)
}

func printReply(msg *conversation.Message) {
	if msg.Content != "" {
		botColor.Println(msg.Content)
	}
	if p := msg.Proposal; p != nil {
		actionColor.Printf("proposed %s: %q (%s)", p.Action, p.Text, p.Category)
		if p.EditItemID != "" {
			actionColor.Printf(" [id:%s]", p.EditItemID)
		}
		fmt.Println()
		dimColor.Println("/accept or /reject")
	}
	for i, rec := range msg.Recommendations {
		actionColor.Printf("%d. %s (%s)\n", i+1, rec.Text, rec.Category)
	}
	if len(msg.Recommendations) > 0 {
		dimColor.Println("/add <n> to save one")
	}
}
