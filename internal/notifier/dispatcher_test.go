package notifier_test

import (
	"context"
	"sync"
	"testing"

	"reportflow/internal/model"
	"reportflow/internal/notifier"
	"reportflow/internal/repository"
	"reportflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeChannel struct {
	mu         sync.Mutex
	deliveries []fakeDelivery
	fail       bool
}

type fakeDelivery struct {
	eventType  string
	recipients []uuid.UUID
}

func (c *fakeChannel) Name() string { return "fake" }

func (c *fakeChannel) Send(ctx context.Context, event workflow.Event, recipients []model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return assert.AnError
	}
	ids := make([]uuid.UUID, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.ID)
	}
	c.deliveries = append(c.deliveries, fakeDelivery{eventType: event.Type, recipients: ids})
	return nil
}

type dispatcherFixture struct {
	db       *gorm.DB
	creator  *model.User
	manager1 *model.User
	manager2 *model.User
	gm       *model.User
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Notification{}))

	f := &dispatcherFixture{
		db:       db,
		creator:  &model.User{Username: "alice", Email: "alice@example.com", Password: "x", Role: model.RoleStaff, Department: model.DeptSafety},
		manager1: &model.User{Username: "bob", Email: "bob@example.com", Password: "x", Role: model.RoleManager, Department: model.DeptSafety},
		manager2: &model.User{Username: "carol", Email: "carol@example.com", Password: "x", Role: model.RoleManager, Department: model.DeptSafety},
		gm:       &model.User{Username: "dave", Email: "dave@example.com", Password: "x", Role: model.RoleGM, Department: model.DeptAdministration},
	}
	for _, u := range []*model.User{f.creator, f.manager1, f.manager2, f.gm} {
		require.NoError(t, db.Create(u).Error)
	}
	return f
}

func TestDispatcher_PersistsInAppNotifications(t *testing.T) {
	f := newDispatcherFixture(t)
	ch := &fakeChannel{}
	d := notifier.NewDispatcher(
		repository.NewUserRepository(f.db),
		repository.NewNotificationRepository(f.db),
		[]notifier.Channel{ch},
		nil,
	)

	reportID := uuid.New()
	d.Enqueue(workflow.Event{
		Type:        model.EventReportSubmitted,
		ReportID:    reportID,
		ReportTitle: "Safety check",
		ActorID:     f.creator.ID,
		Message:     "Report \"Safety check\" was submitted",
		Recipients: []workflow.RecipientSelector{
			{Kind: workflow.SelectorDeptManagers, Department: model.DeptSafety},
		},
	})

	d.Start()
	d.Stop() // drains the queue

	// One in-app row per department manager.
	var rows []model.Notification
	require.NoError(t, f.db.Order("created_at asc").Find(&rows).Error)
	require.Len(t, rows, 2)
	gotRecipients := map[uuid.UUID]bool{rows[0].RecipientID: true, rows[1].RecipientID: true}
	assert.True(t, gotRecipients[f.manager1.ID])
	assert.True(t, gotRecipients[f.manager2.ID])
	for _, row := range rows {
		assert.Equal(t, model.EventReportSubmitted, row.EventType)
		require.NotNil(t, row.ReportID)
		assert.Equal(t, reportID, *row.ReportID)
		assert.False(t, row.IsRead)
	}

	// The channel saw the same recipient set once.
	require.Len(t, ch.deliveries, 1)
	assert.Equal(t, model.EventReportSubmitted, ch.deliveries[0].eventType)
	assert.Len(t, ch.deliveries[0].recipients, 2)
}

func TestDispatcher_DeduplicatesRecipients(t *testing.T) {
	f := newDispatcherFixture(t)
	ch := &fakeChannel{}
	d := notifier.NewDispatcher(
		repository.NewUserRepository(f.db),
		repository.NewNotificationRepository(f.db),
		[]notifier.Channel{ch},
		nil,
	)

	// The creator is selected twice: directly and via the manager pool overlap.
	d.Enqueue(workflow.Event{
		Type:     model.EventReportRejected,
		ReportID: uuid.New(),
		Message:  "rejected",
		Recipients: []workflow.RecipientSelector{
			{Kind: workflow.SelectorCreator, UserID: f.manager1.ID},
			{Kind: workflow.SelectorDeptManagers, Department: model.DeptSafety},
		},
	})

	d.Start()
	d.Stop()

	var count int64
	require.NoError(t, f.db.Model(&model.Notification{}).Where("recipient_id = ?", f.manager1.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDispatcher_ChannelFailureDoesNotLoseInAppCopy(t *testing.T) {
	f := newDispatcherFixture(t)
	ch := &fakeChannel{fail: true}
	d := notifier.NewDispatcher(
		repository.NewUserRepository(f.db),
		repository.NewNotificationRepository(f.db),
		[]notifier.Channel{ch},
		nil,
	)

	d.Enqueue(workflow.Event{
		Type:       model.EventReportCompleted,
		ReportID:   uuid.New(),
		Message:    "done",
		Recipients: []workflow.RecipientSelector{{Kind: workflow.SelectorCreator, UserID: f.creator.ID}},
	})

	d.Start()
	d.Stop()

	var count int64
	require.NoError(t, f.db.Model(&model.Notification{}).Where("recipient_id = ?", f.creator.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDispatcher_GMSelector(t *testing.T) {
	f := newDispatcherFixture(t)
	ch := &fakeChannel{}
	d := notifier.NewDispatcher(
		repository.NewUserRepository(f.db),
		repository.NewNotificationRepository(f.db),
		[]notifier.Channel{ch},
		nil,
	)

	d.Enqueue(workflow.Event{
		Type:       model.EventReportApproved,
		ReportID:   uuid.New(),
		Message:    "awaiting GM",
		Recipients: []workflow.RecipientSelector{{Kind: workflow.SelectorGMs}},
	})

	d.Start()
	d.Stop()

	require.Len(t, ch.deliveries, 1)
	require.Len(t, ch.deliveries[0].recipients, 1)
	assert.Equal(t, f.gm.ID, ch.deliveries[0].recipients[0])
}
