package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"seragon/internal/domain"
	"seragon/internal/logger"
	"seragon/internal/models"
	"seragon/internal/repository"
	"seragon/pkg/assistant"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	chatFallbackReply = "I'm currently experiencing technical difficulties. Please try again later or contact us directly through Discord."
	maxChatHistory    = 10
	maxChatMessageLen = 2000
)

// Completer is the chat completion backend.
type Completer interface {
	Complete(ctx context.Context, messages []assistant.Message, opts assistant.Options) (string, error)
}

type AssistantService struct {
	llm     Completer
	catalog *repository.CatalogRepository
}

func NewAssistantService(llm Completer, catalog *repository.CatalogRepository) *AssistantService {
	return &AssistantService{llm: llm, catalog: catalog}
}

func (s *AssistantService) systemPrompt(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("You are Seragon's assistant for Minecraft server services and pricing. ")
	b.WriteString("Help customers pick services and compare them with BuiltByBit, Polymart, MC-Market and Spigot. ")
	b.WriteString("Purchases are made through checkout; support is available on Discord.\n")
	services, err := s.catalog.ListActiveServices(ctx)
	if err != nil {
		logger.Warn(ctx, "assistant catalog load failed", zap.Error(err))
		return b.String()
	}
	b.WriteString("Current catalog:\n")
	for _, svc := range services {
		cat := ""
		if svc.Category != nil {
			cat = svc.Category.Name + " / "
		}
		fmt.Fprintf(&b, "- %s%s: %s", cat, svc.Name, svc.Price)
		if svc.IsRecurring && svc.RecurringPeriod != "" {
			fmt.Fprintf(&b, " per %s", svc.RecurringPeriod)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Chat answers a customer question. It never fails: upstream problems yield a canned reply.
func (s *AssistantService) Chat(ctx context.Context, message string, history []assistant.Message) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", domain.ErrInvalidArgument)
	}
	if len(message) > maxChatMessageLen {
		return "", fmt.Errorf("%w: message longer than %d characters", domain.ErrInvalidArgument, maxChatMessageLen)
	}
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	msgs := []assistant.Message{{Role: "system", Content: s.systemPrompt(ctx)}}
	for _, h := range history {
		if h.Role == "user" || h.Role == "assistant" {
			msgs = append(msgs, h)
		}
	}
	msgs = append(msgs, assistant.Message{Role: "user", Content: message})

	reply, err := s.llm.Complete(ctx, msgs, assistant.Options{MaxTokens: 500, Temperature: 0.8})
	if err != nil {
		if !errors.Is(err, assistant.ErrNotConfigured) {
			logger.Warn(ctx, "assistant chat failed", zap.Error(err))
		}
		return chatFallbackReply, nil
	}
	return reply, nil
}

type Competitor struct {
	Platform    string       `json:"platform"`
	Price       models.Money `json:"price"`
	ServiceType string       `json:"serviceType"`
	Quality     string       `json:"quality"`
}

type PriceComparison struct {
	Service        string       `json:"service"`
	Price          models.Money `json:"price"`
	Competitors    []Competitor `json:"competitors"`
	Analysis       string       `json:"analysis"`
	Recommendation string       `json:"recommendation"`
}

func fallbackComparison(svc *models.Service) *PriceComparison {
	return &PriceComparison{
		Service: svc.Name,
		Price:   svc.Price,
		Competitors: []Competitor{{
			Platform:    "BuiltByBit",
			Price:       models.NewMoney(svc.Price.Mul(decimal.RequireFromString("1.2"))),
			ServiceType: "Similar service",
			Quality:     "Standard quality",
		}},
		Analysis:       "Unable to perform detailed analysis at this time. Please try again later.",
		Recommendation: "Our pricing is competitive based on current market standards.",
	}
}

// ComparePricing asks the model for a market comparison of one catalog service.
func (s *AssistantService) ComparePricing(ctx context.Context, serviceID uint) (*PriceComparison, error) {
	svc, err := s.catalog.GetServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: service %d", domain.ErrNotFound, serviceID)
		}
		return nil, err
	}
	if !svc.IsActive {
		return nil, fmt.Errorf("%w: service %d", domain.ErrNotFound, serviceID)
	}
	prompt := fmt.Sprintf(`Compare this Minecraft service with similar offers on BuiltByBit, Polymart, MC-Market and Spigot.
Service: %s
Price: %s
Description: %s
Respond with JSON: {"competitors":[{"platform":"","price":"0.00","serviceType":"","quality":""}],"analysis":"","recommendation":""}`,
		svc.Name, svc.Price, svc.Description)
	raw, err := s.llm.Complete(ctx, []assistant.Message{
		{Role: "system", Content: "You are a pricing analyst for Minecraft server services. Provide realistic, data-driven comparisons."},
		{Role: "user", Content: prompt},
	}, assistant.Options{MaxTokens: 1000, Temperature: 0.7, JSON: true})
	if err != nil {
		if !errors.Is(err, assistant.ErrNotConfigured) {
			logger.Warn(ctx, "assistant price comparison failed", zap.Error(err))
		}
		return fallbackComparison(svc), nil
	}
	var parsed PriceComparison
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || len(parsed.Competitors) == 0 {
		logger.Warn(ctx, "assistant returned unusable comparison", zap.Error(err))
		return fallbackComparison(svc), nil
	}
	parsed.Service = svc.Name
	parsed.Price = svc.Price
	return &parsed, nil
}
