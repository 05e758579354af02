package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appconfig "brief-agent/internal/config"
	"brief-agent/internal/domain"
	"brief-agent/internal/integrations/flags"
)

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		SessionStore:  appconfig.StoreMemory,
		SessionTTL:    time.Hour,
		MaxSessions:   10,
		MaxTextLength: 2000,
		MaxQuestions:  5,
		StudioAppURL:  "https://studio.example.com",
	}
}

func TestRunChat_DryRunWalkthrough(t *testing.T) {
	svc, err := buildChatService(context.Background(), testConfig(), flags.Static{})
	require.NoError(t, err)

	script := strings.Join([]string{
		"Je veux un carrousel",
		"2",      // Conversion
		"1",      // 9:16
		"1",      // Minimal
		"1",      // suggested prompt
		"#1",     // 5 slides
		"1",      // launch
		"statut", // first poll: still rendering
		"statut", // rendered
		"/quit",
	}, "\n")
	var out bytes.Buffer
	err = runChat(context.Background(), strings.NewReader(script), &out, svc, chatSettings{
		brandID: "brand-1",
		host:    domain.HostStudio,
		tone:    domain.ToneNeutral,
	})
	require.NoError(t, err)

	got := out.String()
	require.Contains(t, got, "Quel est l'objectif de ta campagne ?")
	require.Contains(t, got, "[2] Conversion")
	require.Contains(t, got, "Quel format veux-tu pour ton carrousel ?")
	require.Contains(t, got, "[#1] 5")
	require.Contains(t, got, "• Objectif : Conversion")
	require.Contains(t, got, "• Slides : 5")
	require.Contains(t, got, "(confirm)")
	require.Contains(t, got, "commande dry-0001")
	require.Contains(t, got, "https://studio.example.com/orders/dry-0001")
	require.Contains(t, got, "https://preview.invalid/dry-0001.png")
}

func TestRunChat_EOFEndsSession(t *testing.T) {
	svc, err := buildChatService(context.Background(), testConfig(), flags.Static{})
	require.NoError(t, err)

	var out bytes.Buffer
	err = runChat(context.Background(), strings.NewReader("bonjour"), &out, svc, chatSettings{brandID: "brand-1"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "images, des carrousels et des vidéos")
}

func TestBuildChatService_RequiresJobsSettings(t *testing.T) {
	_, err := buildChatService(context.Background(), testConfig(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "jobs_api_url")
}

func TestPickQuickReply(t *testing.T) {
	offered := []domain.QuickReply{
		{ID: domain.ChoiceLaunch, Label: "Oui, lancer"},
		{ID: domain.ChoiceModify, Label: "Modifier"},
	}
	qr, ok := pickQuickReply("2", offered)
	require.True(t, ok)
	require.Equal(t, domain.ChoiceModify, qr.ID)

	_, ok = pickQuickReply("3", offered)
	require.False(t, ok)
	_, ok = pickQuickReply("oui", offered)
	require.False(t, ok)
}

func TestPickQuickReply_NumericLabels(t *testing.T) {
	offered := []domain.QuickReply{
		{ID: domain.SlotChoice(domain.SlotSlides, "5"), Label: "5"},
		{ID: domain.SlotChoice(domain.SlotSlides, "8"), Label: "8"},
	}
	_, ok := pickQuickReply("1", offered)
	require.False(t, ok, "a bare number is a slide count here")

	qr, ok := pickQuickReply("#2", offered)
	require.True(t, ok)
	require.Equal(t, "8", qr.Label)
}

func TestRunChat_TypedSlideCount(t *testing.T) {
	svc, err := buildChatService(context.Background(), testConfig(), flags.Static{})
	require.NoError(t, err)

	script := strings.Join([]string{
		"Je veux un carrousel",
		"2", // Conversion
		"1", // 9:16
		"1", // Minimal
		"1", // suggested prompt
		"1", // one slide, typed
	}, "\n")
	var out bytes.Buffer
	err = runChat(context.Background(), strings.NewReader(script), &out, svc, chatSettings{brandID: "brand-1", tone: domain.ToneNeutral})
	require.NoError(t, err)
	require.Contains(t, out.String(), "• Slides : 1")
}

func TestStaticFlags(t *testing.T) {
	s, err := staticFlags([]string{"Video"})
	require.NoError(t, err)
	require.False(t, s.Enabled(context.Background(), domain.KindVideo))
	require.True(t, s.Enabled(context.Background(), domain.KindImage))

	_, err = staticFlags([]string{"gif"})
	require.Error(t, err)

	svc, err := buildChatService(context.Background(), testConfig(), s)
	require.NoError(t, err)
	var out bytes.Buffer
	err = runChat(context.Background(), strings.NewReader("je veux une vidéo"), &out, svc, chatSettings{brandID: "brand-1", tone: domain.ToneNeutral})
	require.NoError(t, err)
	require.Contains(t, out.String(), "temporairement indisponible")
}

func TestDryRunQueue_ReportsQueueAhead(t *testing.T) {
	q := newDryRunQueue()
	first, err := q.Enqueue(context.Background(), domain.Brief{})
	require.NoError(t, err)
	require.Equal(t, 0, *first.QueueSize)

	second, err := q.Enqueue(context.Background(), domain.Brief{})
	require.NoError(t, err)
	require.Equal(t, "dry-0002", second.OrderID)
	require.Equal(t, 1, *second.QueueSize)

	assets, err := q.Search(context.Background(), "brand-1", "unknown")
	require.NoError(t, err)
	require.Empty(t, assets)
}
