package server

import (
	"stuverflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications lists the caller's notifications, newest first. The
// `unread=true` query filters to unread rows.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	p := parsePagination(c, 50)
	unreadOnly := c.QueryBool("unread", false)

	notifs, err := s.notificationService.List(c.UserContext(), uid, unreadOnly, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, notifs)
}

// GetNotificationSummary returns total/unread counts plus the five most
// recent notifications.
func (s *Server) GetNotificationSummary(c *fiber.Ctx) error {
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	summary, err := s.notificationService.Summary(c.UserContext(), uid)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, summary)
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.notificationService.MarkRead(c.UserContext(), uid, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithMessage(c, fiber.StatusOK, "Notification marked as read", nil)
}

// MarkAllNotificationsRead flags every unread notification as read and
// reports how many were updated.
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	updated, err := s.notificationService.MarkAllRead(c.UserContext(), uid)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"updated": updated})
}

// DeleteNotification removes one of the caller's notifications.
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.notificationService.Delete(c.UserContext(), uid, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithMessage(c, fiber.StatusOK, "Notification deleted", nil)
}
