package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"pixeldesk/ai"
	"pixeldesk/models"
)

// DefaultDailyChatLimit caps chat turns per user per UTC day
const DefaultDailyChatLimit = 20

// officeZone is the display zone for the NPC's notion of "now"
var officeZone = time.FixedZone("CST", 8*3600)

// ProviderFactory builds an AI provider from stored configuration
type ProviderFactory func(ctx context.Context, cfg ai.Config) (ai.Provider, error)

type chatService struct {
	uowFactory     UnitOfWorkFactory
	configProvider WorkstationConfigProvider
	newProvider    ProviderFactory
	dailyLimit     int
	now            Clock
}

// NewChatService creates the NPC chat service
func NewChatService(uowFactory UnitOfWorkFactory, configProvider WorkstationConfigProvider, newProvider ProviderFactory, dailyLimit int, now Clock) ChatService {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyChatLimit
	}
	if now == nil {
		now = UTCNow
	}
	return &chatService{
		uowFactory:     uowFactory,
		configProvider: configProvider,
		newProvider:    newProvider,
		dailyLimit:     dailyLimit,
		now:            now,
	}
}

type officeContext struct {
	now           time.Time
	totalDesks    int
	occupiedDesks int
}

func (s *chatService) Chat(ctx context.Context, userID, npcID, message string) (*models.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" || strings.TrimSpace(npcID) == "" {
		return nil, Validation("消息或NPC ID缺失")
	}

	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	npc, err := uow.AiNpcRepository().GetByID(ctx, npcID)
	if err != nil {
		return nil, fmt.Errorf("failed to get npc: %w", err)
	}
	if npc == nil {
		return nil, NotFound("找不到该 NPC")
	}

	aiCfg, err := uow.AiConfigRepository().GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ai config: %w", err)
	}
	if aiCfg == nil || strings.TrimSpace(aiCfg.APIKey) == "" {
		log.WithField("npcID", npcID).Warn("No AI provider configured, replying with simulated message")
		return &models.ChatReply{
			Reply:     fmt.Sprintf("(系统提示: 未配置 AI API Key)\n[%s]: %s？这个我得查查...要不你先去那边转转？", npc.Name, message),
			Usage:     &models.ChatUsage{Current: 0, Limit: s.dailyLimit, Remaining: s.dailyLimit},
			Simulated: true,
		}, nil
	}

	count, err := uow.AiUsageRepository().Increment(ctx, userID, StartOfDayUTC(now))
	if err != nil {
		return nil, fmt.Errorf("failed to record ai usage: %w", err)
	}

	occupied, err := uow.BindingRepository().CountActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count active bindings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if count > s.dailyLimit {
		return nil, RateLimited("Limit exceeded", map[string]any{
			"reply":   fmt.Sprintf("[%s]: 对不起，我今天聊得太久了，头有点晕...咱们明天再聊吧！", npc.Name),
			"current": count,
			"limit":   s.dailyLimit,
		})
	}

	usage := &models.ChatUsage{
		Current:   count,
		Limit:     s.dailyLimit,
		Remaining: max(0, s.dailyLimit-count),
	}

	office := officeContext{now: now, occupiedDesks: occupied, totalDesks: DefaultTotalWorkstations}
	if cfg, err := s.configProvider.Get(ctx); err == nil {
		office.totalDesks = cfg.TotalWorkstations
	}

	text, err := s.complete(ctx, aiCfg, buildSystemPrompt(npc, office), message)
	if err != nil {
		log.WithFields(log.Fields{
			"npcID":    npcID,
			"provider": aiCfg.Provider,
			"error":    err,
		}).Error("AI provider call failed")
		return &models.ChatReply{
			Reply: fmt.Sprintf("[%s]: (捂住脑袋) 哎呀，信号好像不太好，我没听清...", npc.Name),
			Error: err.Error(),
		}, nil
	}

	return &models.ChatReply{Reply: text, Usage: usage}, nil
}

func (s *chatService) complete(ctx context.Context, aiCfg *models.AiGlobalConfig, systemPrompt, message string) (string, error) {
	kind, err := ai.ParseProviderKind(aiCfg.Provider)
	if err != nil {
		return "", err
	}

	provider, err := s.newProvider(ctx, ai.Config{
		Kind:        kind,
		APIKey:      aiCfg.APIKey,
		Model:       aiCfg.ModelName,
		BaseURL:     aiCfg.BaseURL,
		Temperature: aiCfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create %s provider: %w", kind, err)
	}

	model := aiCfg.ModelName
	if model == "" {
		model = kind.DefaultModel()
	}

	reply, err := provider.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: message},
	}, ai.Options{Model: model, Temperature: aiCfg.Temperature})
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"provider":         kind,
		"model":            model,
		"promptTokens":     reply.Usage.PromptTokens,
		"completionTokens": reply.Usage.CompletionTokens,
	}).Debug("AI reply received")

	return reply.Text, nil
}

func buildSystemPrompt(npc *models.AiNpc, office officeContext) string {
	role := npc.Role
	if role == "" {
		role = "工作人员"
	}

	var b strings.Builder
	b.WriteString("你现在扮演 PixelDesk 虚拟办公室里的一个角色。\n")
	fmt.Fprintf(&b, "你的名字: %s\n", npc.Name)
	fmt.Fprintf(&b, "你的职业/角色: %s\n", role)
	fmt.Fprintf(&b, "你的性格描述: %s\n", npc.Personality)
	if npc.Knowledge != "" {
		fmt.Fprintf(&b, "背景知识: %s\n", npc.Knowledge)
	}
	b.WriteString("\n当前办公室实时状态:\n")
	fmt.Fprintf(&b, "- 当前时间: %s\n", office.now.In(officeZone).Format("2006/01/02 15:04:05"))
	fmt.Fprintf(&b, "- 工位情况: 总计 %d 个工位，当前已占用 %d 个\n", office.totalDesks, office.occupiedDesks)
	b.WriteString("\n指令:\n")
	b.WriteString("1. 请保持你的角色设定。\n")
	b.WriteString("2. 回答要简短有力，符合像素游戏风格（通常1-3句话）。\n")
	b.WriteString("3. 如果被问到办公室的情况，可以利用上面的实时状态信息。\n")
	b.WriteString("4. 你只有只读权限，不能帮用户修改数据。\n")
	b.WriteString("5. 请用中文回答。")

	return b.String()
}
