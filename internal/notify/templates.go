package notify

import (
	"fmt"
	"strings"
)

// MessageEvent identifies an outbound notification template.
type MessageEvent string

const (
	MessageCreated       MessageEvent = "created"
	MessageAssigned      MessageEvent = "assigned"
	MessageAssignedToYou MessageEvent = "assigned_to_you"
	MessageAgentAccepted MessageEvent = "agent_accepted"
	MessageStatusChanged MessageEvent = "status_changed"
	MessageCommented     MessageEvent = "commented"
	MessageEscalated     MessageEvent = "escalated"
)

const (
	placeholderUnknown     = "Unknown"
	placeholderNotProvided = "Not provided"
)

// Render builds the subject and body for an event. Missing optional context
// values degrade to placeholder text rather than failing.
func Render(event MessageEvent, ticketID int64, ticketSubject, baseURL string, context map[string]string) (string, string) {
	subject := subjectFor(event, ticketSubject)
	link := fmt.Sprintf("%s/tickets/%d", strings.TrimRight(baseURL, "/"), ticketID)

	var body string
	switch event {
	case MessageCreated:
		body = fmt.Sprintf(`A new ticket has been created:

Ticket ID: #%d
Subject: %s
Category: %s
Priority: %s
Created by: %s

Description:
%s

You can view this ticket at: %s
`, ticketID, ticketSubject,
			value(context, "category", placeholderUnknown),
			titleCase(value(context, "priority", placeholderUnknown)),
			value(context, "creator_name", placeholderUnknown),
			value(context, "description", ""),
			link)

	case MessageAssigned:
		body = fmt.Sprintf(`Your ticket has been assigned to an agent:

Ticket ID: #%d
Subject: %s
Assigned to: %s

You can view this ticket at: %s
`, ticketID, ticketSubject,
			value(context, "agent_name", placeholderUnknown),
			link)

	case MessageAssignedToYou:
		body = fmt.Sprintf(`A ticket has been assigned to you:

Ticket ID: #%d
Subject: %s
Assigned by: %s

You can view this ticket at: %s
`, ticketID, ticketSubject,
			value(context, "assigner_name", placeholderUnknown),
			link)

	case MessageAgentAccepted:
		body = fmt.Sprintf(`An agent has accepted your ticket for resolution:

Ticket ID: #%d
Subject: %s
Agent: %s
Agent email: %s
Agent phone: %s

You can view this ticket at: %s
`, ticketID, ticketSubject,
			value(context, "agent_name", placeholderUnknown),
			value(context, "agent_email", placeholderNotProvided),
			value(context, "agent_phone", placeholderNotProvided),
			link)

	case MessageStatusChanged:
		body = fmt.Sprintf(`The status of your ticket has been updated:

Ticket ID: #%d
Subject: %s
Status changed from: %s to %s

You can view this ticket at: %s
`, ticketID, ticketSubject,
			titleCase(value(context, "old_status", placeholderUnknown)),
			titleCase(value(context, "new_status", placeholderUnknown)),
			link)

	case MessageCommented:
		body = fmt.Sprintf(`A new comment has been added to your ticket:

Ticket ID: #%d
Subject: %s

You can view this ticket at: %s
`, ticketID, ticketSubject, link)

	case MessageEscalated:
		body = fmt.Sprintf(`Your ticket has been escalated:

Ticket ID: #%d
Subject: %s
Reason: %s
Priority is now: Urgent

You can view this ticket at: %s
`, ticketID, ticketSubject,
			value(context, "reason", placeholderNotProvided),
			link)

	default:
		body = fmt.Sprintf(`Your ticket has been updated:

Ticket ID: #%d
Subject: %s

You can view this ticket at: %s
`, ticketID, ticketSubject, link)
	}

	return subject, body
}

func subjectFor(event MessageEvent, ticketSubject string) string {
	switch event {
	case MessageCreated:
		return "New Ticket Created: " + ticketSubject
	case MessageAssigned:
		return "Ticket Assigned: " + ticketSubject
	case MessageAssignedToYou:
		return "Ticket Assigned to You: " + ticketSubject
	case MessageAgentAccepted:
		return "An Agent Accepted Your Ticket: " + ticketSubject
	case MessageStatusChanged:
		return "Ticket Status Updated: " + ticketSubject
	case MessageCommented:
		return "New Comment on Ticket: " + ticketSubject
	case MessageEscalated:
		return "Ticket Escalated: " + ticketSubject
	}
	return "Ticket Update: " + ticketSubject
}

func value(context map[string]string, key, fallback string) string {
	if context == nil {
		return fallback
	}
	if v, ok := context[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// titleCase renders enum-ish values like "in_progress" as "In Progress".
func titleCase(v string) string {
	words := strings.Split(strings.ReplaceAll(v, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
