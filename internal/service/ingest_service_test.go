package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/events"
	"github.com/spec-kit/whatsapp-crm/internal/media"
	"github.com/spec-kit/whatsapp-crm/internal/message"
)

type fakeConversationRepo struct {
	conversations []domain.Conversation
	inboundTouch  int
	outboundTouch int
}

func (f *fakeConversationRepo) Create(ctx context.Context, conversation *domain.Conversation) error {
	conversation.ID = fmt.Sprintf("conv-%d", len(f.conversations)+1)
	f.conversations = append(f.conversations, *conversation)
	return nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Conversation, error) {
	for i := range f.conversations {
		if f.conversations[i].ID == id {
			return &f.conversations[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeConversationRepo) GetByLeadAndInstance(ctx context.Context, tenantID, leadID, instanceID string) (*domain.Conversation, error) {
	for i := range f.conversations {
		if f.conversations[i].LeadID == leadID && f.conversations[i].InstanceID == instanceID {
			return &f.conversations[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeConversationRepo) ListByTenant(ctx context.Context, tenantID string, status *domain.ConversationStatus, limit, offset int) ([]domain.Conversation, error) {
	return f.conversations, nil
}

func (f *fakeConversationRepo) UpdateStatus(ctx context.Context, tenantID, id string, status domain.ConversationStatus) error {
	return nil
}

func (f *fakeConversationRepo) TouchInbound(ctx context.Context, tenantID, id string) error {
	f.inboundTouch++
	return nil
}

func (f *fakeConversationRepo) TouchOutbound(ctx context.Context, tenantID, id string) error {
	f.outboundTouch++
	return nil
}

func (f *fakeConversationRepo) MarkRead(ctx context.Context, tenantID, id string) error { return nil }

type fakeMessageRepo struct {
	messages      []domain.Message
	statusUpdates map[string]domain.MessageStatus
	createErr     error
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	msg.ID = fmt.Sprintf("msg-%d", len(f.messages)+1)
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Message, error) {
	for i := range f.messages {
		if f.messages[i].ID == id {
			return &f.messages[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMessageRepo) ListByConversation(ctx context.Context, tenantID, conversationID string, limit, offset int) ([]domain.Message, error) {
	return f.messages, nil
}

func (f *fakeMessageRepo) UpdateStatus(ctx context.Context, tenantID, id string, status domain.MessageStatus) error {
	if f.statusUpdates == nil {
		f.statusUpdates = map[string]domain.MessageStatus{}
	}
	f.statusUpdates[id] = status
	return nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) typesSeen() map[events.EventType]int {
	out := map[events.EventType]int{}
	for _, e := range d.published {
		out[e.Type]++
	}
	return out
}

type fakeDeduper struct {
	seen map[string]bool
}

func newFakeDeduper() *fakeDeduper { return &fakeDeduper{seen: map[string]bool{}} }

func (d *fakeDeduper) MarkSeen(ctx context.Context, key string) (bool, error) {
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *fakeDeduper) Forget(ctx context.Context, key string) error {
	delete(d.seen, key)
	return nil
}

type fakeObjectStore struct {
	objects map[string]string
}

func (s *fakeObjectStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	if s.objects == nil {
		s.objects = map[string]string{}
	}
	s.objects[objectName] = contentType
	return nil
}

func (s *fakeObjectStore) Bucket() string { return "crm-media" }

type ingestFixture struct {
	service       *IngestService
	leads         *fakeLeadRepo
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	dispatcher    *recordingDispatcher
	instance      *domain.GatewayInstance
}

func newIngestFixture(seed []domain.Lead) *ingestFixture {
	leads := &fakeLeadRepo{leads: seed}
	conversations := &fakeConversationRepo{}
	messages := &fakeMessageRepo{}
	dispatcher := &recordingDispatcher{}
	logger := zap.NewNop()

	svc := NewIngestService(IngestServiceDependencies{
		Leads:         leads,
		Conversations: conversations,
		Messages:      messages,
		Resolver:      NewLeadResolver(leads, logger),
		Validator:     message.NewValidator(logger),
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	return &ingestFixture{
		service:       svc,
		leads:         leads,
		conversations: conversations,
		messages:      messages,
		dispatcher:    dispatcher,
		instance: &domain.GatewayInstance{
			ID:       "inst-1",
			TenantID: "t1",
			BaseURL:  "https://gateway.example.com",
			APIKey:   "secret",
			IsActive: true,
		},
	}
}

func TestIngestSkipsGroupChat(t *testing.T) {
	f := newIngestFixture(nil)
	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID: "120363041234567890@g.us", Type: "chat", Content: "hi",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Skipped || result.SkipReason != SkipReasonGroupChat {
		t.Fatalf("got %+v, want group_chat skip", result)
	}
	if len(f.messages.messages) != 0 {
		t.Fatal("group message must not be persisted")
	}
}

func TestIngestSkipsStatusBroadcast(t *testing.T) {
	f := newIngestFixture(nil)
	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID: "status@broadcast", Type: "image", MediaURL: "https://x/y.jpg",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Skipped || result.SkipReason != SkipReasonStatusBroadcast {
		t.Fatalf("got %+v, want status_broadcast skip", result)
	}
}

func TestIngestSkipsUnsupportedType(t *testing.T) {
	f := newIngestFixture(nil)
	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID: "5511987654321@c.us", Type: "poll", Content: "which?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Skipped || result.SkipReason != SkipReasonUnsupportedType {
		t.Fatalf("got %+v, want unsupported_type skip", result)
	}
}

func TestIngestSkipsEmptyMessage(t *testing.T) {
	f := newIngestFixture(nil)
	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID: "5511987654321@c.us", Type: "chat", Content: "   ",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Skipped || result.SkipReason != message.ReasonEmptyMessage {
		t.Fatalf("got %+v, want empty_message skip", result)
	}
	if f.leads.created != 0 {
		t.Fatal("skipped payload must not create a lead")
	}
}

func TestIngestSkipsPlaceholderContent(t *testing.T) {
	f := newIngestFixture(nil)
	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID: "5511987654321@c.us", Type: "chat", Content: "[Imagem]",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Skipped || result.SkipReason != message.ReasonPlaceholderContent {
		t.Fatalf("got %+v, want placeholder_content skip", result)
	}
}

func TestIngestCreatesLeadConversationAndMessage(t *testing.T) {
	f := newIngestFixture(nil)
	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		GatewayMessageID: "wamid.1",
		ChatID:           "5511987654321@c.us",
		SenderName:       "Maria",
		Type:             "chat",
		Content:          "Oi, tudo bem?\r\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.SkipReason)
	}

	if f.leads.created != 1 {
		t.Fatalf("created %d leads, want 1", f.leads.created)
	}
	lead := f.leads.leads[0]
	if lead.Phone != "11987654321" || lead.CountryCode != "55" {
		t.Fatalf("lead stored as %s/%s", lead.CountryCode, lead.Phone)
	}
	if lead.WhatsappName != "Maria" {
		t.Fatalf("whatsapp name %q", lead.WhatsappName)
	}
	if lead.FunnelStage != domain.FunnelStageNew {
		t.Fatalf("stage %s", lead.FunnelStage)
	}

	if len(f.conversations.conversations) != 1 {
		t.Fatalf("got %d conversations", len(f.conversations.conversations))
	}
	if f.conversations.conversations[0].Status != domain.ConversationStatusOpen {
		t.Fatalf("status %s", f.conversations.conversations[0].Status)
	}
	if f.conversations.inboundTouch != 1 {
		t.Fatalf("inbound touches %d", f.conversations.inboundTouch)
	}

	if len(f.messages.messages) != 1 {
		t.Fatalf("got %d messages", len(f.messages.messages))
	}
	msg := f.messages.messages[0]
	if msg.Direction != domain.MessageDirectionIn || msg.Status != domain.MessageStatusReceived {
		t.Fatalf("direction %s status %s", msg.Direction, msg.Status)
	}
	if msg.Type != "text" {
		t.Fatalf("type %s, want chat aliased to text", msg.Type)
	}
	if msg.Content != "Oi, tudo bem?\n" {
		t.Fatalf("content %q not sanitized", msg.Content)
	}

	seen := f.dispatcher.typesSeen()
	for _, want := range []events.EventType{events.EventLeadCreated, events.EventConversationOpened, events.EventMessageReceived} {
		if seen[want] != 1 {
			t.Fatalf("event %s published %d times", want, seen[want])
		}
	}
}

func TestIngestReusesExistingLeadAndConversation(t *testing.T) {
	f := newIngestFixture([]domain.Lead{
		{ID: "l1", TenantID: "t1", Phone: "11987654321", CountryCode: "55", Name: "Maria"},
	})
	f.conversations.conversations = []domain.Conversation{
		{ID: "c1", TenantID: "t1", LeadID: "l1", InstanceID: "inst-1", ChatID: "5511987654321@c.us"},
	}

	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID: "11987654321@c.us", Type: "chat", Content: "de novo",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.SkipReason)
	}
	if result.LeadID != "l1" || result.ConversationID != "c1" {
		t.Fatalf("got lead %s conversation %s", result.LeadID, result.ConversationID)
	}
	if f.leads.created != 0 || len(f.conversations.conversations) != 1 {
		t.Fatal("existing lead and conversation must be reused")
	}
}

func TestIngestSkipsUnresolvedLinkedID(t *testing.T) {
	f := newIngestFixture(nil)
	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID: "98765432109876543@lid", SenderName: "Desconhecido", Type: "chat", Content: "oi",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Skipped || result.SkipReason != SkipReasonLIDUnresolved {
		t.Fatalf("got %+v, want lid_unresolved skip", result)
	}
	if f.leads.created != 0 {
		t.Fatal("linked ids must never become leads")
	}
}

func TestIngestResolvesLinkedIDByName(t *testing.T) {
	f := newIngestFixture([]domain.Lead{
		{ID: "l1", TenantID: "t1", Phone: "1196543210", CountryCode: "55", Name: "Maria Silva"},
	})
	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID: "98765432109876543210@lid", SenderName: "Maria", Type: "chat", Content: "oi",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.SkipReason)
	}
	if result.LeadID != "l1" {
		t.Fatalf("lead %s, want l1", result.LeadID)
	}
}

func TestIngestPlaceholderCaptionNotStoredAsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegbytes")) //nolint:errcheck
	}))
	defer srv.Close()

	f := newIngestFixture(nil)
	f.service.media = media.NewIngestor(&fakeObjectStore{}, srv.Client(), zap.NewNop())
	f.instance.BaseURL = srv.URL

	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID:   "5511987654321@c.us",
		Type:     "image",
		Content:  "[Imagem]",
		MediaURL: srv.URL + "/media/abc.jpg",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.SkipReason)
	}

	msg := f.messages.messages[0]
	if msg.MediaRef == nil || !strings.HasPrefix(*msg.MediaRef, "storage://crm-media/") {
		t.Fatalf("media ref = %v", msg.MediaRef)
	}
	if msg.Content != "" {
		t.Fatalf("gateway marker persisted as content: %q", msg.Content)
	}
}

func TestIngestLostMediaFallsBackToTypeLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newIngestFixture(nil)
	f.service.media = media.NewIngestor(&fakeObjectStore{}, srv.Client(), zap.NewNop())

	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID:   "5511987654321@c.us",
		Type:     "image",
		Content:  "[Imagem]",
		MediaURL: srv.URL + "/media/gone.jpg",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.SkipReason)
	}

	// The attachment is gone and the caption was only a marker; the message
	// survives with the type label as its content.
	msg := f.messages.messages[0]
	if msg.MediaRef != nil {
		t.Fatalf("media ref = %v, want none", msg.MediaRef)
	}
	if msg.Content != "[Imagem]" {
		t.Fatalf("content = %q", msg.Content)
	}
}

func TestIngestSkipsRedeliveredDuplicate(t *testing.T) {
	f := newIngestFixture(nil)
	f.service.dedupe = newFakeDeduper()

	payload := InboundMessage{
		GatewayMessageID: "wamid.9", ChatID: "5511987654321@c.us", Type: "chat", Content: "oi",
	}
	first, err := f.service.Ingest(context.Background(), f.instance, payload)
	if err != nil {
		t.Fatal(err)
	}
	if first.Skipped {
		t.Fatalf("unexpected skip: %s", first.SkipReason)
	}

	second, err := f.service.Ingest(context.Background(), f.instance, payload)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Skipped || second.SkipReason != SkipReasonDuplicate {
		t.Fatalf("got %+v, want duplicate_message skip", second)
	}
	if len(f.messages.messages) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(f.messages.messages))
	}
}

func TestIngestRedeliveryAfterFailureIsProcessed(t *testing.T) {
	f := newIngestFixture(nil)
	dedupe := newFakeDeduper()
	f.service.dedupe = dedupe
	f.messages.createErr = errors.New("connection refused")

	payload := InboundMessage{
		GatewayMessageID: "wamid.9", ChatID: "5511987654321@c.us", Type: "chat", Content: "oi",
	}
	if _, err := f.service.Ingest(context.Background(), f.instance, payload); err == nil {
		t.Fatal("persist failure must surface so the gateway redelivers")
	}
	if len(dedupe.seen) != 0 {
		t.Fatal("failed ingest must release the dedupe mark")
	}

	result, err := f.service.Ingest(context.Background(), f.instance, payload)
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped {
		t.Fatalf("redelivery skipped as %s", result.SkipReason)
	}
	if len(f.messages.messages) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(f.messages.messages))
	}
}

func TestIngestFromMeIsOutbound(t *testing.T) {
	f := newIngestFixture([]domain.Lead{
		{ID: "l1", TenantID: "t1", Phone: "11987654321", CountryCode: "55"},
	})
	result, err := f.service.Ingest(context.Background(), f.instance, InboundMessage{
		ChatID: "5511987654321@c.us", Type: "chat", Content: "resposta", FromMe: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.SkipReason)
	}
	msg := f.messages.messages[0]
	if msg.Direction != domain.MessageDirectionOut || msg.Status != domain.MessageStatusSent {
		t.Fatalf("direction %s status %s", msg.Direction, msg.Status)
	}
	if f.conversations.outboundTouch != 1 || f.conversations.inboundTouch != 0 {
		t.Fatalf("touches in=%d out=%d", f.conversations.inboundTouch, f.conversations.outboundTouch)
	}
	if f.leads.updated != 0 {
		t.Fatal("outbound echo must not touch the lead")
	}
}
