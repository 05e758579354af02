package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	appconfig "brief-agent/internal/config"
	"brief-agent/internal/dialogue"
	"brief-agent/internal/domain"
	"brief-agent/internal/host"
	"brief-agent/internal/integrations/flags"
	"brief-agent/internal/integrations/jobs"
	"brief-agent/internal/integrations/paramstore"
	"brief-agent/internal/repository"
	"brief-agent/internal/usecase"
)

var (
	chatBrand  string
	chatUser   string
	chatHost   string
	chatTone   string
	chatDryRun bool
	chatOff    []string
)

var (
	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	quickStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive brief session",
	Long: `Start an interactive session. Type a message and press enter.
When the assistant offers numbered quick replies, type the number to pick one.
When the replies are numbers themselves (slide counts), prefix it: #1.
Type /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(chatBrand) == "" {
			return errors.New("--brand is required")
		}
		cfg, err := appconfig.Load(configPath, appconfig.Override{Key: "session_store", Value: appconfig.StoreMemory})
		if err != nil {
			return err
		}
		level := cfg.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var static flags.Static
		if chatDryRun {
			if static, err = staticFlags(chatOff); err != nil {
				return err
			}
		}
		svc, err := buildChatService(cmd.Context(), cfg, static)
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), svc, chatSettings{
			brandID: chatBrand,
			userID:  chatUser,
			host:    domain.HostVariant(strings.ToLower(chatHost)),
			tone:    domain.ToneProfile(strings.ToLower(chatTone)),
		})
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatBrand, "brand", "", "Brand id the briefs are created for")
	chatCmd.Flags().StringVar(&chatUser, "user", "", "Optional user id")
	chatCmd.Flags().StringVar(&chatHost, "host", string(domain.HostStudio), "Product variant: studio or express")
	chatCmd.Flags().StringVar(&chatTone, "tone", "", "Tone profile override: neutral, friendly or formal")
	chatCmd.Flags().BoolVar(&chatDryRun, "dry-run", false, "Use an in-process queue instead of the jobs API")
	chatCmd.Flags().StringSliceVar(&chatOff, "disable", nil, "With --dry-run, creation kinds to report as unavailable (image, video, carousel)")
	rootCmd.AddCommand(chatCmd)
}

// staticFlags turns --disable values into a fixed flag set.
func staticFlags(disabled []string) (flags.Static, error) {
	out := flags.Static{}
	for _, raw := range disabled {
		kind := domain.Kind(strings.ToLower(strings.TrimSpace(raw)))
		if !kind.Valid() {
			return nil, fmt.Errorf("--disable: unknown kind %q", raw)
		}
		out[kind] = false
	}
	return out, nil
}

// buildChatService wires the engine. A non-nil static flag set selects the
// in-process queue; otherwise the jobs API and SSM flags are used.
func buildChatService(ctx context.Context, cfg *appconfig.Config, static flags.Static) (*usecase.ChatService, error) {
	var (
		dispatcher dialogue.Dispatcher
		assets     dialogue.AssetSearcher
		flagSource dialogue.FlagSource
	)
	if static != nil {
		q := newDryRunQueue()
		dispatcher, assets, flagSource = q, q, static
	} else {
		if cfg.ParamPrefix == "" || cfg.JobsAPIURL == "" {
			return nil, errors.New("param_prefix and jobs_api_url are required without --dry-run")
		}
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, err
		}
		jc, err := jobs.NewClient(ps, cfg.ParamPrefix, cfg.JobsAPIURL, jobs.WithTimeout(cfg.JobsTimeout))
		if err != nil {
			return nil, err
		}
		fc, err := flags.New(ps, cfg.ParamPrefix, cfg.FlagsTTL)
		if err != nil {
			return nil, err
		}
		dispatcher, assets, flagSource = jc, jc, fc
	}

	resolver := host.NewResolver(cfg.ExpressHosts)
	engine, err := dialogue.NewEngine(dispatcher, assets, flagSource,
		dialogue.WithHostResolver(resolver),
		dialogue.WithMaxQuestions(cfg.MaxQuestions),
		dialogue.WithOrderLinks(map[domain.HostVariant]string{
			domain.HostStudio:  cfg.StudioAppURL,
			domain.HostExpress: cfg.ExpressAppURL,
		}),
	)
	if err != nil {
		return nil, err
	}
	store := repository.NewMemoryStore(cfg.SessionTTL, cfg.MaxSessions)
	return usecase.NewChatService(store, engine, resolver, cfg.MaxTextLength)
}

type chatSettings struct {
	brandID string
	userID  string
	host    domain.HostVariant
	tone    domain.ToneProfile
}

type chatUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

// runChat reads one message per line until EOF or /quit.
func runChat(ctx context.Context, in io.Reader, out io.Writer, svc chatUseCase, st chatSettings) error {
	meta := host.RequestMeta{Headers: map[string]string{}}
	if st.host.Valid() {
		meta.Headers[host.VariantHeader] = string(st.host)
	}

	var (
		sessionID string
		offered   []domain.QuickReply
	)
	fmt.Fprintln(out, metaStyle.Render("Type /quit to leave."))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		input := usecase.ChatInput{
			SessionID: sessionID,
			BrandID:   st.brandID,
			UserID:    st.userID,
			Text:      line,
			Tone:      st.tone,
			Meta:      meta,
		}
		if qr, ok := pickQuickReply(line, offered); ok {
			input.Text = qr.Label
			input.Choice = qr.ID
		}

		res, err := svc.Chat(ctx, input)
		if err != nil {
			if usecase.CodeOf(err) == usecase.ErrorSessionNotFound {
				sessionID = ""
				fmt.Fprintln(out, errorStyle.Render("Session expired, starting a new one."))
				continue
			}
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			continue
		}
		sessionID = res.SessionID
		offered = nil
		for _, r := range res.Replies {
			fmt.Fprintln(out, botStyle.Render(r.Text))
			offered = append(offered, r.QuickReplies...)
		}
		prefix := ""
		if numericLabels(offered) {
			prefix = "#"
		}
		for i, qr := range offered {
			fmt.Fprintln(out, quickStyle.Render(fmt.Sprintf("  [%s%d] %s", prefix, i+1, qr.Label)))
		}
		fmt.Fprintln(out, metaStyle.Render(fmt.Sprintf("(%s)", res.Stage)))
	}
}

// pickQuickReply maps "#1", "#2", ... to the quick replies offered last
// turn. A bare number works too unless the labels are numbers themselves,
// in which case it is sent as typed.
func pickQuickReply(line string, offered []domain.QuickReply) (domain.QuickReply, bool) {
	raw, hashed := strings.CutPrefix(line, "#")
	if !hashed && numericLabels(offered) {
		return domain.QuickReply{}, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > len(offered) {
		return domain.QuickReply{}, false
	}
	return offered[n-1], true
}

func numericLabels(offered []domain.QuickReply) bool {
	for _, qr := range offered {
		if _, err := strconv.Atoi(qr.Label); err == nil {
			return true
		}
	}
	return false
}
