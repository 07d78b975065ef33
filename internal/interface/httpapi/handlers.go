package httpapi

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/mo"

	"github.com/jinford/look-matcher/internal/core/catalog"
	"github.com/jinford/look-matcher/internal/core/describe"
	"github.com/jinford/look-matcher/internal/core/look"
	"github.com/jinford/look-matcher/internal/core/match"
)

// analyzeRequest は POST /api/v1/analyze のリクエストボディ
type analyzeRequest struct {
	// ImageURL は解析対象画像のURL
	ImageURL string `json:"image_url"`
	// ImageData はbase64エンコードされた画像バイト列（ImageURLと排他）
	ImageData string `json:"image_data"`
}

// itemLinks はアイテムごとのEC検索リンク
type itemLinks struct {
	ItemType string               `json:"item_type"`
	Links    []catalog.SearchLink `json:"links"`
}

// analyzeResponse は POST /api/v1/analyze のレスポンスボディ
type analyzeResponse struct {
	Analysis    *describe.Analysis `json:"analysis"`
	SearchLinks []itemLinks        `json:"search_links"`
}

// matchRequest は POST /api/v1/match のリクエストボディ
type matchRequest struct {
	QueryImageURL  string            `json:"query_image_url"`
	QueryImageData string            `json:"query_image_data"`
	Candidates     []match.Candidate `json:"candidates"`
	TopK           int               `json:"top_k"`
	MinSimilarity  *float64          `json:"min_similarity"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	src, err := imageSource(req.ImageURL, req.ImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := s.describeService.Describe(c.Request.Context(), src)
	if err != nil {
		s.handleError(c, err)
		return
	}

	links := make([]itemLinks, 0, len(analysis.Items))
	for _, item := range analysis.Items {
		links = append(links, itemLinks{
			ItemType: item.Type,
			Links:    catalog.SearchLinks(item.SearchKeywords, item.Type),
		})
	}

	c.JSON(http.StatusOK, analyzeResponse{
		Analysis:    analysis,
		SearchLinks: links,
	})
}

func (s *Server) handleMatch(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	src, err := imageSource(req.QueryImageURL, req.QueryImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := match.Options{TopK: req.TopK}
	if req.MinSimilarity != nil {
		opts.MinSimilarity = mo.Some(*req.MinSimilarity)
	}

	result, err := s.matchService.MatchLook(c.Request.Context(), src, req.Candidates, opts)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleError はドメインエラーをHTTPステータスへ変換する
func (s *Server) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, look.ErrEmptyImageSource),
		errors.Is(err, match.ErrInvalidTopK),
		errors.Is(err, match.ErrInvalidMinSimilarity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, describe.ErrParseFailure),
		errors.Is(err, describe.ErrNoItems),
		errors.Is(err, match.ErrQueryImage):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.logger.Error("リクエスト処理に失敗", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// imageSource はURLまたはbase64バイト列から画像ソースを組み立てる
func imageSource(imageURL, imageData string) (look.ImageSource, error) {
	switch {
	case imageURL != "" && imageData != "":
		return look.ImageSource{}, errors.New("specify either image_url or image_data, not both")
	case imageURL != "":
		return look.FromURL(imageURL), nil
	case imageData != "":
		data, err := base64.StdEncoding.DecodeString(imageData)
		if err != nil {
			return look.ImageSource{}, errors.New("image_data must be valid base64")
		}
		return look.FromBytes(data), nil
	default:
		return look.ImageSource{}, errors.New("image_url or image_data is required")
	}
}
