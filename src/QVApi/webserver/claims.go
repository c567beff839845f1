package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/questcomms/src/shared/data"
	"github.com/stake-plus/questcomms/src/shared/types"
	"gorm.io/gorm"
)

type Claims struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewClaims(db *gorm.DB, rdb *redis.Client) Claims {
	return Claims{db: db, rdb: rdb}
}

// List returns every unresolved claim, optionally filtered by guild.
func (cl Claims) List(c *gin.Context) {
	q := cl.db.Order("created_at ASC")
	if guildID := c.Query("guild"); guildID != "" {
		q = q.Where("guild_id = ?", guildID)
	}

	var entries []types.LedgerEntry
	if err := q.Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Get returns one unresolved claim with its current votes.
func (cl Claims) Get(c *gin.Context) {
	claimID := c.Param("id")

	var entry types.LedgerEntry
	if err := cl.db.First(&entry, "claim_id = ?", claimID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "claim not found or already resolved"})
		return
	}

	var votes []types.LedgerVote
	if err := cl.db.Find(&votes, "claim_id = ?", claimID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}

	likes, dislikes := 0, 0
	for _, v := range votes {
		if v.Like {
			likes++
		} else {
			dislikes++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"claim":    entry,
		"votes":    votes,
		"likes":    likes,
		"dislikes": dislikes,
		"score":    likes - dislikes,
	})
}

// Resolutions returns the latest resolved claims from the redis
// stream the bot publishes to.
func (cl Claims) Resolutions(c *gin.Context) {
	msgs, err := data.RecentResolutions(c, cl.rdb, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "stream read failed"})
		return
	}

	out := make([]map[string]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		entry := map[string]interface{}{"id": msg.ID}
		for k, v := range msg.Values {
			entry[k] = v
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, out)
}
