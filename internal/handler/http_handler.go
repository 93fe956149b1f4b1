package handler

import (
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guifei-live/room-server/internal/domain"
	"github.com/guifei-live/room-server/internal/registry"
	"github.com/guifei-live/room-server/internal/repository"
	"github.com/guifei-live/room-server/internal/room"
	"github.com/guifei-live/room-server/pkg/response"
)

// HTTPHandler serves the status and admin query surface. It only reads
// snapshots; all live-room mutations go through the websocket path.
type HTTPHandler struct {
	rooms     *room.Table
	registry  *registry.Registry
	gifts     repository.GiftRepository // may be nil
	users     repository.UserRepository // may be nil
	startedAt time.Time
}

func NewHTTPHandler(rooms *room.Table, reg *registry.Registry, gifts repository.GiftRepository, users repository.UserRepository) *HTTPHandler {
	return &HTTPHandler{
		rooms:     rooms,
		registry:  reg,
		gifts:     gifts,
		users:     users,
		startedAt: time.Now(),
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Status)
	r.GET("/rooms", h.ListRooms)

	api := r.Group("/api")
	api.GET("/gifts", h.GiftCatalogue)
	api.GET("/rooms/:id/gifts", h.ListRoomGifts)
	api.GET("/users", h.ListUsers)
	api.GET("/users/:id", h.GetUser)
}

// Status reports liveness plus active room and connection counts.
func (h *HTTPHandler) Status(c *gin.Context) {
	c.JSON(200, gin.H{
		"message":        "GuiFei Live room server is running",
		"timestamp":      time.Now().UTC(),
		"uptimeSeconds":  int(time.Since(h.startedAt).Seconds()),
		"activeRooms":    h.rooms.Len(),
		"connectedUsers": h.registry.Count(),
	})
}

// ListRooms returns all rooms with their viewer counts.
func (h *HTTPHandler) ListRooms(c *gin.Context) {
	rooms := h.rooms.List()
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	c.JSON(200, rooms)
}

// GiftCatalogue returns the supported gift types.
func (h *HTTPHandler) GiftCatalogue(c *gin.Context) {
	response.Success(c, []string{
		domain.GiftHeart,
		domain.GiftFlower,
		domain.GiftDiamond,
		domain.GiftCrown,
	})
}

// ListRoomGifts returns the most recent gifts recorded for a room.
func (h *HTTPHandler) ListRoomGifts(c *gin.Context) {
	if h.gifts == nil {
		response.NotFound(c, "gift ledger is not configured")
		return
	}

	roomID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.gifts.ListByRoom(c.Request.Context(), roomID, limit)
	if err != nil {
		response.InternalError(c, "failed to list gifts")
		return
	}
	response.Success(c, records)
}

// ListUsers returns stored profile snapshots with pagination.
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	if h.users == nil {
		response.NotFound(c, "user records are not configured")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.users.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.InternalError(c, "failed to list users")
		return
	}
	response.Success(c, gin.H{
		"users": records,
		"total": total,
		"page":  page,
	})
}

// GetUser returns one stored profile snapshot.
func (h *HTTPHandler) GetUser(c *gin.Context) {
	if h.users == nil {
		response.NotFound(c, "user records are not configured")
		return
	}

	record, err := h.users.GetByUserID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to load user")
		return
	}
	response.Success(c, record)
}
