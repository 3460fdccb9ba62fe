package controller

import (
	"errors"
	"net/http"

	model "postag-go/internal/model/ngram"
	"postag-go/internal/service"
	"postag-go/internal/service/ngram"
	"postag-go/internal/service/tagger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaggerController struct {
	taggingService *service.TaggingService
	logger         *zap.Logger
}

func NewTaggerController(taggingService *service.TaggingService, logger *zap.Logger) *TaggerController {
	return &TaggerController{
		taggingService: taggingService,
		logger:         logger,
	}
}

type TagRequest struct {
	Tokens []string `json:"tokens" binding:"required"`
}

type TagResponse struct {
	Tokens         []string `json:"tokens"`
	Tags           []string `json:"tags"`
	Probability    float64  `json:"probability"`
	LogProbability float64  `json:"log_probability"`
}

type ProbabilityRequest struct {
	Context []string `json:"context"`
	Symbol  string   `json:"symbol" binding:"required"`
}

type SequenceRequest struct {
	Tokens []string `json:"tokens" binding:"required"`
}

type PermutationsRequest struct {
	Words []string `json:"words" binding:"required"`
	Limit int      `json:"limit"`
}

func (tc *TaggerController) Tag(c *gin.Context) {
	var request TagRequest
	if !tc.bind(c, &request) {
		return
	}

	tc.logger.Debug("Tagging sentence", zap.Int("tokens", len(request.Tokens)))

	result, err := tc.taggingService.Tag(c.Request.Context(), request.Tokens)
	if err != nil {
		tc.fail(c, "Failed to tag sentence", err)
		return
	}

	c.JSON(http.StatusOK, TagResponse{
		Tokens:         model.Sentence(request.Tokens).Content(),
		Tags:           result.Tags,
		Probability:    result.Probability,
		LogProbability: result.LogProbability,
	})
}

func (tc *TaggerController) Probability(c *gin.Context) {
	var request ProbabilityRequest
	if !tc.bind(c, &request) {
		return
	}

	p, err := tc.taggingService.Probability(request.Context, request.Symbol)
	if err != nil {
		tc.fail(c, "Failed to compute probability", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"context":     request.Context,
		"symbol":      request.Symbol,
		"probability": p,
	})
}

func (tc *TaggerController) Sequence(c *gin.Context) {
	var request SequenceRequest
	if !tc.bind(c, &request) {
		return
	}

	score, err := tc.taggingService.ScoreSequence(request.Tokens)
	if err != nil {
		tc.fail(c, "Failed to score sequence", err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (tc *TaggerController) Permutations(c *gin.Context) {
	var request PermutationsRequest
	if !tc.bind(c, &request) {
		return
	}

	scored, err := tc.taggingService.ScoredPermutations(request.Words, request.Limit)
	if err != nil {
		tc.fail(c, "Failed to score permutations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"permutations": scored})
}

// Table lists every observed cell of one model
func (tc *TaggerController) Table(c *gin.Context) {
	table, err := tc.taggingService.ProbabilityTable(c.Param("model"))
	if err != nil {
		tc.fail(c, "Failed to build probability table", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"model":   c.Param("model"),
		"entries": table.Entries(),
	})
}

func (tc *TaggerController) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, tc.taggingService.Stats())
}

func (tc *TaggerController) bind(c *gin.Context, request any) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		tc.logger.Error("Invalid request payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return false
	}
	return true
}

func (tc *TaggerController) fail(c *gin.Context, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		tc.logger.Error(message, zap.Error(err))
	} else {
		tc.logger.Debug(message, zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tagger.ErrNoTagging):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnknownModel):
		return http.StatusNotFound
	case ngram.IsConfigError(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoLanguageModel), errors.Is(err, service.ErrNoTagger):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
