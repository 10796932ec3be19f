package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/playmatatu/poolsim/internal/game"
)

type rackRequest struct {
	Variant       string   `json:"variant"`
	Table         string   `json:"table"`
	Ordered       bool     `json:"ordered"`
	SpacingFactor *float64 `json:"spacing_factor"`
	Seed          *int64   `json:"seed"`
	WhiteToBreak  *bool    `json:"white_to_break"`
	Wiggle        *bool    `json:"wiggle"`
}

// BuildRack lays out a starting position. Without a seed one is drawn from
// the clock and returned so the rack can be reproduced.
func BuildRack(cfg game.PhysicsConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req rackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rack request"})
			return
		}

		variant, err := game.ParseVariant(req.Variant)
		if err != nil {
			writeError(c, err)
			return
		}
		table := variant.Table()
		if req.Table != "" {
			if table, err = game.TableByName(req.Table); err != nil {
				writeError(c, err)
				return
			}
		}

		spacing := game.DefaultSpacingFactor
		if req.SpacingFactor != nil {
			spacing = *req.SpacingFactor
		}
		seed := time.Now().UnixNano()
		if req.Seed != nil {
			seed = *req.Seed
		}

		opts := []game.RackOption{game.WithBallSpec(cfg.BallRadius, cfg.BallMass)}
		whiteToBreak := true
		if req.WhiteToBreak != nil {
			whiteToBreak = *req.WhiteToBreak
			opts = append(opts, game.WithWhiteToBreak(whiteToBreak))
		}
		if req.Wiggle != nil && !*req.Wiggle {
			opts = append(opts, game.WithoutWiggle())
		}

		rack, err := game.Build(variant, table, req.Ordered, spacing, game.NewRackRNG(seed), opts...)
		if err != nil {
			writeError(c, err)
			return
		}
		log.WithFields(log.Fields{"variant": variant, "seed": seed}).Debug("[RACK] built")

		c.JSON(http.StatusOK, gin.H{
			"variant":    variant,
			"table":      table,
			"seed":       seed,
			"break_ball": variant.BreakBall(whiteToBreak),
			"balls":      rack.Ordered(),
		})
	}
}
