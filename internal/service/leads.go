// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/olegiv/studiosite/internal/mailrelay"
	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/store"
)

// ContactService manages contact form submissions.
type ContactService struct {
	docs     *store.Documents
	notifier Notifier
	logger   *slog.Logger
}

// NewContactService creates a ContactService. notifier may be nil.
func NewContactService(docs *store.Documents, notifier Notifier, logger *slog.Logger) *ContactService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{docs: docs, notifier: notifier, logger: logger}
}

// Submit persists a public contact message and then queues the email
// notification. The stored record is returned even if the notification
// cannot be queued.
func (s *ContactService) Submit(ctx context.Context, msg model.ContactMessage) (model.ContactMessage, error) {
	msg.FirstName = strings.TrimSpace(msg.FirstName)
	msg.LastName = strings.TrimSpace(msg.LastName)
	msg.Email = strings.TrimSpace(msg.Email)

	v := validator{}
	v.required("firstName", msg.FirstName)
	v.email("email", msg.Email)
	v.required("message", msg.Message)
	if err := v.err(); err != nil {
		return model.ContactMessage{}, err
	}

	msg.Meta = model.Meta{}
	msg.Status = model.ContactNew

	doc, err := s.docs.Create(ctx, model.CollectionContactMessages, msg)
	if err != nil {
		return model.ContactMessage{}, storeErr("saving contact message", err)
	}
	msg.SetMeta(doc.ID, doc.CreatedAt)

	s.logger.Info("contact message received", "id", msg.ID, "service", msg.Service)
	notify(s.notifier, mailrelay.KindContact, msg)
	return msg, nil
}

// List returns contact messages, newest first, and the total matching count.
func (s *ContactService) List(ctx context.Context, opts ListOptions) ([]model.ContactMessage, int64, error) {
	q := opts.query(model.CollectionContactMessages)
	docs, err := s.docs.Query(ctx, q)
	if err != nil {
		return nil, 0, storeErr("listing contact messages", err)
	}
	total, err := s.docs.Count(ctx, q)
	if err != nil {
		return nil, 0, storeErr("counting contact messages", err)
	}
	msgs, err := decodeRecords[model.ContactMessage](docs)
	return msgs, total, err
}

// Get returns one contact message.
func (s *ContactService) Get(ctx context.Context, id string) (model.ContactMessage, error) {
	doc, err := s.docs.Get(ctx, model.CollectionContactMessages, id)
	if err != nil {
		return model.ContactMessage{}, storeErr("loading contact message", err)
	}
	return decodeRecord[model.ContactMessage](doc)
}

// UpdateStatus changes only the status of a message.
func (s *ContactService) UpdateStatus(ctx context.Context, id string, status model.ContactStatus) (model.ContactMessage, error) {
	if !status.Valid() {
		return model.ContactMessage{}, &ValidationError{Fields: map[string]string{"status": "must be one of new, read, replied"}}
	}
	doc, err := s.docs.Update(ctx, model.CollectionContactMessages, id, map[string]any{"status": status})
	if err != nil {
		return model.ContactMessage{}, storeErr("updating contact message", err)
	}
	return decodeRecord[model.ContactMessage](doc)
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, model.CollectionContactMessages, id); err != nil {
		return storeErr("deleting contact message", err)
	}
	return nil
}

// InquiryService manages project inquiries from the quote form.
type InquiryService struct {
	docs     *store.Documents
	notifier Notifier
	logger   *slog.Logger
}

// NewInquiryService creates an InquiryService. notifier may be nil.
func NewInquiryService(docs *store.Documents, notifier Notifier, logger *slog.Logger) *InquiryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InquiryService{docs: docs, notifier: notifier, logger: logger}
}

// Submit persists a public inquiry, variant details as submitted, and then
// queues the email notification.
func (s *InquiryService) Submit(ctx context.Context, inq model.ProjectInquiry) (model.ProjectInquiry, error) {
	inq.Name = strings.TrimSpace(inq.Name)
	inq.Email = strings.TrimSpace(inq.Email)

	v := validator{}
	v.required("name", inq.Name)
	v.email("email", inq.Email)
	v.check(inq.ServiceType.Valid(), "serviceType", "must be one of ecommerce, webdev, graphics, other")
	if err := v.err(); err != nil {
		return model.ProjectInquiry{}, err
	}

	inq.Meta = model.Meta{}
	inq.Status = model.InquiryNew

	doc, err := s.docs.Create(ctx, model.CollectionProjectInquiries, inq)
	if err != nil {
		return model.ProjectInquiry{}, storeErr("saving project inquiry", err)
	}
	inq.SetMeta(doc.ID, doc.CreatedAt)

	s.logger.Info("project inquiry received", "id", inq.ID, "service_type", inq.ServiceType)
	notify(s.notifier, mailrelay.KindInquiry, inq)
	return inq, nil
}

// List returns inquiries, newest first, and the total matching count.
func (s *InquiryService) List(ctx context.Context, opts ListOptions) ([]model.ProjectInquiry, int64, error) {
	q := opts.query(model.CollectionProjectInquiries)
	docs, err := s.docs.Query(ctx, q)
	if err != nil {
		return nil, 0, storeErr("listing project inquiries", err)
	}
	total, err := s.docs.Count(ctx, q)
	if err != nil {
		return nil, 0, storeErr("counting project inquiries", err)
	}
	inqs, err := decodeRecords[model.ProjectInquiry](docs)
	return inqs, total, err
}

// Get returns one inquiry.
func (s *InquiryService) Get(ctx context.Context, id string) (model.ProjectInquiry, error) {
	doc, err := s.docs.Get(ctx, model.CollectionProjectInquiries, id)
	if err != nil {
		return model.ProjectInquiry{}, storeErr("loading project inquiry", err)
	}
	return decodeRecord[model.ProjectInquiry](doc)
}

// UpdateStatus changes only the status of an inquiry.
func (s *InquiryService) UpdateStatus(ctx context.Context, id string, status model.InquiryStatus) (model.ProjectInquiry, error) {
	if !status.Valid() {
		return model.ProjectInquiry{}, &ValidationError{Fields: map[string]string{"status": "must be one of new, contacted, closed"}}
	}
	doc, err := s.docs.Update(ctx, model.CollectionProjectInquiries, id, map[string]any{"status": status})
	if err != nil {
		return model.ProjectInquiry{}, storeErr("updating project inquiry", err)
	}
	return decodeRecord[model.ProjectInquiry](doc)
}

// Delete removes an inquiry.
func (s *InquiryService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, model.CollectionProjectInquiries, id); err != nil {
		return storeErr("deleting project inquiry", err)
	}
	return nil
}

func notify(n Notifier, kind mailrelay.Kind, data any) {
	if n == nil {
		return
	}
	n.Notify(kind, data)
}
