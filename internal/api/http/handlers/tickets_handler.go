package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/quickdesk/internal/api/dto"
	"github.com/quickdesk/quickdesk/internal/auth"
	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/internal/repository"
	"github.com/quickdesk/quickdesk/internal/service"
	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

// TicketsHandler exposes the ticket workflow endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
	votes       *service.VoteService
	escalations *service.EscalationService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(
	tickets *service.TicketService,
	assignments *service.AssignmentService,
	votes *service.VoteService,
	escalations *service.EscalationService,
) *TicketsHandler {
	return &TicketsHandler{
		tickets:     tickets,
		assignments: assignments,
		votes:       votes,
		escalations: escalations,
	}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	attachments := make([]service.AttachmentInput, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, service.AttachmentInput{
			OriginalFilename: att.OriginalFilename,
			SizeBytes:        att.SizeBytes,
			MimeType:         att.MimeType,
		})
	}

	ticket, err := h.tickets.Create(c.UserContext(), actor, service.TicketCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Priority:    domain.TicketPriority(req.Priority),
		Tags:        req.Tags,
		Attachments: attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	tickets, err := h.tickets.List(c.UserContext(), actor, parseTicketFilter(c, actor))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.tickets.Get(c.UserContext(), actor, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// Edit PATCH /tickets/:id.
func (h *TicketsHandler) Edit(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.EditTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	input := service.TicketEditInput{
		Subject:     req.Subject,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		input.Priority = &priority
	}

	ticket, err := h.tickets.Edit(c.UserContext(), actor, ticketID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), actor, ticketID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.tickets.UpdateStatus(c.UserContext(), actor, ticketID, domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	result, err := h.assignments.Assign(c.UserContext(), actor, ticketID, service.AssignInput{
		TargetAgentID: req.AgentID,
		SelfAssign:    req.SelfAssign,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AssignResponse{
		Message: result.Message,
		Ticket:  ticketSummary(result.Ticket),
	}})
}

// Vote POST /tickets/:id/vote.
func (h *TicketsHandler) Vote(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.votes.Vote(c.UserContext(), actor, ticketID, domain.VoteType(req.Type))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.VoteResponse{
		Action: result.Action,
		Score:  result.Score,
	}})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	comment, err := h.tickets.AddComment(c.UserContext(), actor, ticketID, req.Content, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListActivity GET /tickets/:id/activity.
func (h *TicketsHandler) ListActivity(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	records, err := h.tickets.ListActivity(c.UserContext(), actor, ticketID)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(records))
	for i := range records {
		items = append(items, activityResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Escalate POST /tickets/:id/escalate.
func (h *TicketsHandler) Escalate(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.escalations.Escalate(c.UserContext(), actor, ticketID, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"escalation": escalationResponse(result.Escalation),
		"ticket":     ticketSummary(result.Ticket),
	}})
}

// ListEscalations GET /tickets/:id/escalations.
func (h *TicketsHandler) ListEscalations(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	escalations, err := h.escalations.History(c.UserContext(), actor, ticketID)
	if err != nil {
		return err
	}
	items := make([]dto.EscalationResponse, 0, len(escalations))
	for i := range escalations {
		items = append(items, escalationResponse(&escalations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidArgument("invalid id", map[string]any{"param": param})
	}
	return id, nil
}

func parseTicketFilter(c *fiber.Ctx, actor *domain.User) repository.TicketFilter {
	filter := repository.TicketFilter{}

	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category_id"); categoryStr != "" {
		if id, err := strconv.ParseInt(categoryStr, 10, 64); err == nil && id > 0 {
			filter.CategoryID = &id
		}
	}
	if c.QueryBool("mine") {
		filter.CreatorID = &actor.ID
	}
	if c.QueryBool("assigned_to_me") {
		filter.AssigneeID = &actor.ID
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	filter.Limit = c.QueryInt("limit", 20)
	filter.Offset = c.QueryInt("offset", 0)
	return filter
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	tags := make([]string, 0, len(ticket.Tags))
	for _, tag := range ticket.Tags {
		tags = append(tags, tag.Name)
	}
	return dto.TicketSummary{
		ID:         ticket.ID,
		Subject:    ticket.Subject,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		CreatorID:  ticket.CreatorID,
		CategoryID: ticket.CategoryID,
		AssigneeID: ticket.AssigneeID,
		Tags:       tags,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for i := range detail.Comments {
		comments = append(comments, commentResponse(&detail.Comments[i]))
	}
	attachments := make([]dto.AttachmentResponse, 0, len(detail.Attachments))
	for _, att := range detail.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:               att.ID,
			StorageKey:       att.StorageKey,
			OriginalFilename: att.OriginalFilename,
			SizeBytes:        att.SizeBytes,
			MimeType:         att.MimeType,
			CreatedAt:        att.CreatedAt,
		})
	}
	activities := make([]dto.ActivityResponse, 0, len(detail.Activities))
	for i := range detail.Activities {
		activities = append(activities, activityResponse(&detail.Activities[i]))
	}
	return dto.TicketDetailResponse{
		TicketSummary: ticketSummary(detail.Ticket),
		Description:   detail.Ticket.Description,
		Score:         detail.Score,
		UserVote:      detail.UserVote,
		Comments:      comments,
		Attachments:   attachments,
		Activities:    activities,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		Internal:  comment.Internal,
		CreatedAt: comment.CreatedAt,
	}
}

func activityResponse(record *domain.ActivityRecord) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:          record.ID,
		UserID:      record.UserID,
		Type:        record.Type,
		Description: record.Description,
		OldValue:    record.OldValue,
		NewValue:    record.NewValue,
		CreatedAt:   record.CreatedAt,
	}
}

func escalationResponse(escalation *domain.Escalation) dto.EscalationResponse {
	return dto.EscalationResponse{
		ID:          escalation.ID,
		TicketID:    escalation.TicketID,
		EscalatedBy: escalation.EscalatedBy,
		Reason:      escalation.Reason,
		EscalatedAt: escalation.EscalatedAt,
		ResolvedAt:  escalation.ResolvedAt,
	}
}
