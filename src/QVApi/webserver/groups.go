package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/questcomms/src/shared/types"
	"gorm.io/gorm"
)

type Groups struct{ db *gorm.DB }

func NewGroups(db *gorm.DB) Groups { return Groups{db: db} }

type groupView struct {
	Config     types.GroupConfig    `json:"config"`
	Moderators []types.ModeratorSub `json:"moderators"`
	Community  string               `json:"community,omitempty"`
}

// List returns every configured guild with its moderators and bound
// community. Credentials are never exposed.
func (g Groups) List(c *gin.Context) {
	var configs []types.GroupConfig
	if err := g.db.Find(&configs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}

	out := make([]groupView, 0, len(configs))
	for _, cfg := range configs {
		view := groupView{Config: cfg}

		var subs []types.ModeratorSub
		g.db.Find(&subs, "guild_id = ?", cfg.GuildID)
		view.Moderators = subs

		var binding types.CommunityBinding
		if err := g.db.First(&binding, "guild_id = ?", cfg.GuildID).Error; err == nil {
			view.Community = binding.Community
		}

		out = append(out, view)
	}
	c.JSON(http.StatusOK, out)
}
