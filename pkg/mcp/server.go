package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"postag-go/internal/config"
	model "postag-go/internal/model/ngram"
	"postag-go/internal/service"
	"postag-go/internal/service/tagger"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type TaggerServer struct {
	server         *mcp.Server
	taggingService *service.TaggingService
	config         *config.Config
	logger         *zap.Logger
	handler        *mcp.StreamableHTTPHandler
}

type TagSentenceParams struct {
	Sentence string   `json:"sentence,omitempty" jsonschema:"whitespace separated sentence to tag"`
	Tokens   []string `json:"tokens,omitempty" jsonschema:"pre-tokenized sentence, takes precedence over sentence"`
}

type NGramProbabilityParams struct {
	Context []string `json:"context,omitempty" jsonschema:"preceding tokens, oldest first"`
	Symbol  string   `json:"symbol" jsonschema:"the token whose conditional probability is wanted"`
}

type ModelStatsParams struct{}

func NewTaggerServer(taggingService *service.TaggingService, cfg *config.Config, logger *zap.Logger) *TaggerServer {
	server := &TaggerServer{
		taggingService: taggingService,
		config:         cfg,
		logger:         logger,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "POSTagger",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tagSentence",
		Description: "Assign the most likely part-of-speech tag to every token of a sentence. Returns one token/tag pair per line followed by the path probability",
	}, server.handleTagSentence)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "ngramProbability",
		Description: "Return the smoothed conditional probability of a token given the preceding tokens under the loaded n-gram language model",
	}, server.handleNGramProbability)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "modelStats",
		Description: "Describe the loaded language model and tagger: order, vocabulary size, n-gram counts, smoothing and tag states",
	}, server.handleModelStats)

	server.handler = mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	server.server = mcpServer
	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func (s *TaggerServer) handleTagSentence(ctx context.Context, req *mcp.CallToolRequest, args TagSentenceParams) (*mcp.CallToolResult, any, error) {
	tokens := args.Tokens
	if len(tokens) == 0 {
		tokens = strings.Fields(args.Sentence)
	}
	s.logger.Info("Handling tagSentence request", zap.Int("tokens", len(tokens)))

	result, err := s.taggingService.Tag(ctx, tokens)
	if err != nil {
		s.logger.Warn("Failed to tag sentence", zap.Error(err))
		if errors.Is(err, tagger.ErrNoTagging) {
			return textResult(fmt.Sprintf("No tagging possible: %v", err)), nil, nil
		}
		return textResult(fmt.Sprintf("Failed to tag sentence: %v", err)), nil, nil
	}

	return textResult(formatTagging(tokens, result)), nil, nil
}

func formatTagging(tokens []string, result *tagger.Result) string {
	var sb strings.Builder
	words := model.Sentence(tokens).Content()
	for i, tag := range result.Tags {
		fmt.Fprintf(&sb, "%s/%s\n", words[i], tag)
	}
	fmt.Fprintf(&sb, "probability: %g\n", result.Probability)
	return sb.String()
}

func (s *TaggerServer) handleNGramProbability(ctx context.Context, req *mcp.CallToolRequest, args NGramProbabilityParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling ngramProbability request", zap.Strings("context", args.Context), zap.String("symbol", args.Symbol))

	if args.Symbol == "" {
		return textResult("symbol is required"), nil, nil
	}
	p, err := s.taggingService.Probability(args.Context, args.Symbol)
	if err != nil {
		s.logger.Warn("Failed to compute probability", zap.Error(err))
		return textResult(fmt.Sprintf("Failed to compute probability: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("P(%s | %s) = %g", args.Symbol, strings.Join(args.Context, " "), p)), nil, nil
}

func (s *TaggerServer) handleModelStats(ctx context.Context, req *mcp.CallToolRequest, args ModelStatsParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling modelStats request")

	data, err := json.MarshalIndent(s.taggingService.Stats(), "", "  ")
	if err != nil {
		return textResult(fmt.Sprintf("Failed to encode stats: %v", err)), nil, nil
	}
	return textResult(string(data)), nil, nil
}

// Handler exposes the streamable HTTP transport
func (s *TaggerServer) Handler() http.Handler {
	return s.handler
}

// SetupHTTPRoutes mounts the MCP transport on the API router and starts the
// dedicated MCP listener.
func (s *TaggerServer) SetupHTTPRoutes(router *gin.Engine) {
	router.Any("/mcp", gin.WrapH(s.handler))

	go func() {
		address := s.config.Mcp.GetAddress()
		s.logger.Info("MCP Server going to listen", zap.String("address", address))
		if err := http.ListenAndServe(address, s.handler); err != nil {
			s.logger.Error("MCP Server failed", zap.Error(err))
		}
	}()
}
