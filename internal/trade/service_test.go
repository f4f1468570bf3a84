package trade_test

import (
	"context"
	"errors"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"
	"seogaeum/backend/internal/testutil"
	"seogaeum/backend/internal/trade"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

const isbn = "9788937460449"

type recordingSink struct {
	mu     sync.Mutex
	events []models.TradeEvent
}

func (r *recordingSink) Publish(ctx context.Context, event models.TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) kinds() []models.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Publish(ctx context.Context, event models.TradeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type TradeSuite struct {
	suite.Suite
	ctx      context.Context
	store    *storage.Service
	sink     *recordingSink
	svc      *trade.Service
	seller   *models.User
	buyer    *models.User
	outsider *models.User
	book     *models.Book
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeSuite))
}

func (s *TradeSuite) SetupTest() {
	t := s.T()
	s.ctx = context.Background()
	s.store = testutil.NewStore(t)
	s.sink = &recordingSink{}
	s.svc = trade.NewService(s.store, zaptest.NewLogger(t), s.sink)

	s.seller = testutil.CreateUser(t, s.store, "seller")
	s.buyer = testutil.CreateUser(t, s.store, "buyer")
	s.outsider = testutil.CreateUser(t, s.store, "outsider")
	s.book = testutil.CreateBook(t, s.store, isbn)
	testutil.Own(t, s.store, s.book.ID, s.seller.ID, 15000)
}

func (s *TradeSuite) newRoom() *models.TradeRoom {
	room, _, err := s.svc.GetOrCreateRoom(s.ctx, isbn, s.buyer.ID)
	s.Require().NoError(err)
	return room
}

func (s *TradeSuite) status(roomID string) models.TradeStatus {
	room, err := s.store.GetRoomByID(s.ctx, roomID)
	s.Require().NoError(err)
	return room.Status
}

func (s *TradeSuite) propose(roomID, requesterID string, target models.TradeStatus) *models.StatusChangeRequest {
	req, err := s.svc.ProposeTransition(s.ctx, roomID, requesterID, target)
	s.Require().NoError(err)
	return req
}

func (s *TradeSuite) moveTo(room *models.TradeRoom, target models.TradeStatus) {
	req := s.propose(room.ID, s.buyer.ID, target)
	_, err := s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.seller.ID, trade.DecisionAccept)
	s.Require().NoError(err)
}

// --- registry ---

func (s *TradeSuite) TestGetOrCreateRoom_Idempotent() {
	first, created, err := s.svc.GetOrCreateRoom(s.ctx, isbn, s.buyer.ID)
	s.Require().NoError(err)
	s.True(created)
	s.Equal(models.StatusRequested, first.Status)
	s.Equal(s.seller.ID, first.SellerID)
	s.Equal(s.buyer.ID, first.BuyerID)

	second, created, err := s.svc.GetOrCreateRoom(s.ctx, isbn, s.buyer.ID)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.ID, second.ID)

	s.Equal([]models.EventKind{models.EventRoomCreated}, s.sink.kinds())
}

func (s *TradeSuite) TestGetOrCreateRoom_ConcurrentCallsShareOneRoom() {
	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]int{}
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room, c, err := s.svc.GetOrCreateRoom(s.ctx, isbn, s.buyer.ID)
			s.NoError(err)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[room.ID]++
			if c {
				created++
			}
		}()
	}
	wg.Wait()

	s.Len(ids, 1)
	s.Equal(1, created)
}

func (s *TradeSuite) TestGetOrCreateRoom_SelfTradeForbidden() {
	_, _, err := s.svc.GetOrCreateRoom(s.ctx, isbn, s.seller.ID)
	s.ErrorIs(err, trade.ErrSelfTradeForbidden)
}

func (s *TradeSuite) TestGetOrCreateRoom_BookNotFound() {
	_, _, err := s.svc.GetOrCreateRoom(s.ctx, "0000000000000", s.buyer.ID)
	s.ErrorIs(err, trade.ErrBookNotFound)
}

func (s *TradeSuite) TestGetOrCreateRoom_NoOwnerAvailable() {
	other := testutil.CreateBook(s.T(), s.store, "9791190090018")
	testutil.Own(s.T(), s.store, other.ID, s.seller.ID, 0)

	_, _, err := s.svc.GetOrCreateRoom(s.ctx, other.ISBN, s.buyer.ID)
	s.ErrorIs(err, trade.ErrNoOwnerAvailable)
}

func (s *TradeSuite) TestGetRoom_ParticipantsOnly() {
	room := s.newRoom()
	s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)

	detail, err := s.svc.GetRoom(s.ctx, room.ID, s.seller.ID)
	s.Require().NoError(err)
	s.Equal(room.ID, detail.Room.ID)
	s.Len(detail.PendingRequests, 1)

	_, err = s.svc.GetRoom(s.ctx, room.ID, s.outsider.ID)
	s.ErrorIs(err, trade.ErrInvalidParticipant)
	_, err = s.svc.GetRoom(s.ctx, "missing", s.seller.ID)
	s.ErrorIs(err, trade.ErrRoomNotFound)
}

func (s *TradeSuite) TestListRoomsForUser() {
	room := s.newRoom()

	rooms, err := s.svc.ListRoomsForUser(s.ctx, s.seller.ID)
	s.Require().NoError(err)
	s.Require().Len(rooms, 1)
	s.Equal(room.ID, rooms[0].ID)

	rooms, err = s.svc.ListRoomsForUser(s.ctx, s.outsider.ID)
	s.Require().NoError(err)
	s.Empty(rooms)
}

// --- seller approval ---

func (s *TradeSuite) TestSellerApprove() {
	room := s.newRoom()

	_, err := s.svc.SellerApprove(s.ctx, room.ID, s.buyer.ID)
	s.ErrorIs(err, trade.ErrNotSeller)
	_, err = s.svc.SellerApprove(s.ctx, room.ID, s.outsider.ID)
	s.ErrorIs(err, trade.ErrNotSeller)

	updated, err := s.svc.SellerApprove(s.ctx, room.ID, s.seller.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, updated.Status)
	s.Equal(models.StatusApproved, s.status(room.ID))

	_, err = s.svc.SellerApprove(s.ctx, room.ID, s.seller.ID)
	s.ErrorIs(err, trade.ErrInvalidState)

	_, err = s.svc.SellerApprove(s.ctx, "missing", s.seller.ID)
	s.ErrorIs(err, trade.ErrRoomNotFound)
}

// --- proposals ---

func (s *TradeSuite) TestProposeTransition() {
	room := s.newRoom()

	req := s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)
	s.Equal(models.RequestPending, req.State)
	s.Equal(s.buyer.ID, req.RequesterID)
	s.Equal(models.StatusRequested, s.status(room.ID))

	last := s.sink.events[len(s.sink.events)-1]
	s.Equal(models.EventRequestProposed, last.Kind)
	s.Equal(s.seller.ID, last.Recipient())
}

func (s *TradeSuite) TestProposeTransition_Errors() {
	room := s.newRoom()

	_, err := s.svc.ProposeTransition(s.ctx, room.ID, s.outsider.ID, models.StatusLibraryStored)
	s.ErrorIs(err, trade.ErrInvalidParticipant)

	_, err = s.svc.ProposeTransition(s.ctx, room.ID, s.buyer.ID, models.StatusApproved)
	s.ErrorIs(err, trade.ErrInvalidTargetStatus)
	_, err = s.svc.ProposeTransition(s.ctx, room.ID, s.buyer.ID, models.StatusRequested)
	s.ErrorIs(err, trade.ErrInvalidTargetStatus)
	_, err = s.svc.ProposeTransition(s.ctx, room.ID, s.buyer.ID, "SHIPPED")
	s.ErrorIs(err, trade.ErrInvalidTargetStatus)

	s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)
	_, err = s.svc.ProposeTransition(s.ctx, room.ID, s.buyer.ID, models.StatusLibraryStored)
	s.ErrorIs(err, trade.ErrDuplicatePendingRequest)
	_, err = s.svc.ProposeTransition(s.ctx, room.ID, s.seller.ID, models.StatusLibraryStored)
	s.ErrorIs(err, trade.ErrDuplicatePendingRequest)

	// A different target may be pending at the same time.
	s.propose(room.ID, s.seller.ID, models.StatusCompleted)
}

func (s *TradeSuite) TestProposeTransition_NotForwardFromCurrentStatus() {
	room := s.newRoom()
	s.moveTo(room, models.StatusLibraryStored)

	_, err := s.svc.ProposeTransition(s.ctx, room.ID, s.buyer.ID, models.StatusLibraryStored)
	s.ErrorIs(err, trade.ErrInvalidTargetStatus)
}

func (s *TradeSuite) TestProposeTransition_ConcurrentDuplicates() {
	room := s.newRoom()
	const n = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, dupErr int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.ProposeTransition(s.ctx, room.ID, s.buyer.ID, models.StatusCompleted)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case trade.KindOf(err) == trade.KindConflict:
				dupErr++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, ok)
	s.Equal(n-1, dupErr)
}

// --- resolution ---

func (s *TradeSuite) TestResolveRequest_Accept() {
	room := s.newRoom()
	req := s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)

	resolved, err := s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.seller.ID, trade.DecisionAccept)
	s.Require().NoError(err)
	s.Equal(models.RequestAccepted, resolved.State)
	s.Equal(models.StatusLibraryStored, s.status(room.ID))

	stored, err := s.store.GetRequest(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestAccepted, stored.State)
	s.Require().NotNil(stored.ResolvedBy)
	s.Equal(s.seller.ID, *stored.ResolvedBy)

	kinds := s.sink.kinds()
	s.Equal([]models.EventKind{models.EventRequestResolved, models.EventStatusChanged}, kinds[len(kinds)-2:])
}

func (s *TradeSuite) TestResolveRequest_RejectLeavesStatus() {
	room := s.newRoom()
	_, err := s.svc.SellerApprove(s.ctx, room.ID, s.seller.ID)
	s.Require().NoError(err)
	req := s.propose(room.ID, s.seller.ID, models.StatusCompleted)

	resolved, err := s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.buyer.ID, trade.DecisionReject)
	s.Require().NoError(err)
	s.Equal(models.RequestRejected, resolved.State)
	s.Equal(models.StatusApproved, s.status(room.ID))
}

func (s *TradeSuite) TestResolveRequest_RequesterCannotResolve() {
	room := s.newRoom()
	req := s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)

	for _, d := range []trade.Decision{trade.DecisionAccept, trade.DecisionReject} {
		_, err := s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.buyer.ID, d)
		s.ErrorIs(err, trade.ErrNotCounterparty)
	}
	s.Equal(models.StatusRequested, s.status(room.ID))
}

func (s *TradeSuite) TestResolveRequest_Errors() {
	room := s.newRoom()
	req := s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)

	_, err := s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.outsider.ID, trade.DecisionAccept)
	s.ErrorIs(err, trade.ErrInvalidParticipant)
	_, err = s.svc.ResolveRequest(s.ctx, room.ID, "missing", s.seller.ID, trade.DecisionAccept)
	s.ErrorIs(err, trade.ErrRequestNotFound)
	_, err = s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.seller.ID, "maybe")
	s.ErrorIs(err, trade.ErrInvalidDecision)

	_, err = s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.seller.ID, trade.DecisionReject)
	s.Require().NoError(err)
	_, err = s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.seller.ID, trade.DecisionAccept)
	s.ErrorIs(err, trade.ErrRequestAlreadyResolved)
	s.Equal(models.StatusRequested, s.status(room.ID))
}

func (s *TradeSuite) TestResolveRequest_WrongRoom() {
	room := s.newRoom()
	req := s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)

	other := testutil.CreateUser(s.T(), s.store, "other-buyer")
	otherRoom, _, err := s.svc.GetOrCreateRoom(s.ctx, isbn, other.ID)
	s.Require().NoError(err)

	_, err = s.svc.ResolveRequest(s.ctx, otherRoom.ID, req.ID, s.seller.ID, trade.DecisionAccept)
	s.ErrorIs(err, trade.ErrRequestNotFound)
}

func (s *TradeSuite) TestResolveRequest_StaleCompetingRequestRejected() {
	room := s.newRoom()
	stored := s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)
	completed := s.propose(room.ID, s.seller.ID, models.StatusCompleted)

	_, err := s.svc.ResolveRequest(s.ctx, room.ID, completed.ID, s.buyer.ID, trade.DecisionAccept)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, s.status(room.ID))

	// The other request stays pending until someone acts on it, but the
	// room detail no longer offers it.
	pending, err := s.store.ListPendingRequests(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Len(pending, 1)
	detail, err := s.svc.GetRoom(s.ctx, room.ID, s.seller.ID)
	s.Require().NoError(err)
	s.Empty(detail.PendingRequests)

	resolved, err := s.svc.ResolveRequest(s.ctx, room.ID, stored.ID, s.seller.ID, trade.DecisionAccept)
	s.ErrorIs(err, trade.ErrStaleRequest)
	s.Equal(models.RequestRejected, resolved.State)
	s.Equal(models.StatusCompleted, s.status(room.ID))

	again, err := s.store.GetRequest(s.ctx, stored.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestRejected, again.State)
}

func (s *TradeSuite) TestResolveRequest_ConcurrentAcceptsApplyOnce() {
	room := s.newRoom()
	req := s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)

	const n = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		resolved int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.seller.ID, trade.DecisionAccept)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, trade.ErrRequestAlreadyResolved) {
				resolved++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, ok)
	s.Equal(n-1, resolved)
	s.Equal(models.StatusLibraryStored, s.status(room.ID))
}

func (s *TradeSuite) TestApproveRacingAcceptNeverLosesUpdate() {
	room := s.newRoom()
	req := s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = s.svc.SellerApprove(s.ctx, room.ID, s.seller.ID)
	}()
	go func() {
		defer wg.Done()
		_, err := s.svc.ResolveRequest(s.ctx, room.ID, req.ID, s.seller.ID, trade.DecisionAccept)
		s.NoError(err)
	}()
	wg.Wait()

	// Approval either lands first and is overtaken, or comes too late;
	// it never rolls the room back.
	s.Equal(models.StatusLibraryStored, s.status(room.ID))
}

func (s *TradeSuite) TestProposeTransition_CompletedRoomWithLeftoverRequest() {
	room := s.newRoom()
	s.moveTo(room, models.StatusLibraryStored)
	s.propose(room.ID, s.seller.ID, models.StatusCompleted)

	_, err := s.svc.BuyerCompleteReceipt(s.ctx, room.ID, s.buyer.ID)
	s.Require().NoError(err)

	for _, target := range []models.TradeStatus{models.StatusCompleted, models.StatusLibraryStored} {
		_, err = s.svc.ProposeTransition(s.ctx, room.ID, s.buyer.ID, target)
		s.ErrorIs(err, trade.ErrInvalidTargetStatus, "target %s", target)
	}

	detail, err := s.svc.GetRoom(s.ctx, room.ID, s.buyer.ID)
	s.Require().NoError(err)
	s.Empty(detail.PendingRequests)
}

// --- buyer receipt ---

func (s *TradeSuite) TestBuyerCompleteReceipt() {
	room := s.newRoom()

	_, err := s.svc.BuyerCompleteReceipt(s.ctx, room.ID, s.buyer.ID)
	s.ErrorIs(err, trade.ErrInvalidState)

	s.moveTo(room, models.StatusLibraryStored)

	_, err = s.svc.BuyerCompleteReceipt(s.ctx, room.ID, s.seller.ID)
	s.ErrorIs(err, trade.ErrNotBuyer)

	done, err := s.svc.BuyerCompleteReceipt(s.ctx, room.ID, s.buyer.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, done.Status)
}

// Seller registers, buyer opens a room, seller approves, the book goes into
// a locker by agreement and the buyer confirms pickup.
func (s *TradeSuite) TestFullExchangeScenario() {
	room, created, err := s.svc.GetOrCreateRoom(s.ctx, isbn, s.buyer.ID)
	s.Require().NoError(err)
	s.True(created)
	s.Equal(models.StatusRequested, room.Status)

	_, err = s.svc.SellerApprove(s.ctx, room.ID, s.seller.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, s.status(room.ID))

	q1 := s.propose(room.ID, s.buyer.ID, models.StatusLibraryStored)
	s.Equal(models.RequestPending, q1.State)

	_, err = s.svc.ResolveRequest(s.ctx, room.ID, q1.ID, s.seller.ID, trade.DecisionAccept)
	s.Require().NoError(err)
	s.Equal(models.StatusLibraryStored, s.status(room.ID))

	_, err = s.svc.BuyerCompleteReceipt(s.ctx, room.ID, s.buyer.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, s.status(room.ID))

	_, err = s.svc.SellerApprove(s.ctx, room.ID, s.seller.ID)
	s.ErrorIs(err, trade.ErrInvalidState)
	_, err = s.svc.ProposeTransition(s.ctx, room.ID, s.buyer.ID, models.StatusCompleted)
	s.ErrorIs(err, trade.ErrInvalidTargetStatus)
	_, err = s.svc.BuyerCompleteReceipt(s.ctx, room.ID, s.buyer.ID)
	s.ErrorIs(err, trade.ErrInvalidState)
	loc := "반포도서관"
	_, err = s.svc.UpdateLocation(s.ctx, room.ID, s.seller.ID, &loc, nil)
	s.ErrorIs(err, trade.ErrInvalidState)
}

// --- location ---

func (s *TradeSuite) TestUpdateLocation() {
	room := s.newRoom()
	loc, locker := "  반포도서관 무인 보관함  ", "B-7"

	_, err := s.svc.UpdateLocation(s.ctx, room.ID, s.buyer.ID, &loc, &locker)
	s.ErrorIs(err, trade.ErrNotSeller)

	updated, err := s.svc.UpdateLocation(s.ctx, room.ID, s.seller.ID, &loc, &locker)
	s.Require().NoError(err)
	s.Require().NotNil(updated.Location)
	s.Equal("반포도서관 무인 보관함", *updated.Location)
	s.Equal("B-7", *updated.LockerNumber)

	blank := " "
	updated, err = s.svc.UpdateLocation(s.ctx, room.ID, s.seller.ID, &loc, &blank)
	s.Require().NoError(err)
	s.Nil(updated.LockerNumber)

	long := strings.Repeat("가", 201)
	_, err = s.svc.UpdateLocation(s.ctx, room.ID, s.seller.ID, &long, nil)
	s.ErrorIs(err, trade.ErrLocationTooLong)
	s.Equal(trade.KindValidation, trade.KindOf(err))
}

// --- messages ---

func (s *TradeSuite) TestMessages() {
	room := s.newRoom()

	m1, err := s.svc.PostMessage(s.ctx, room.ID, s.buyer.ID, "책 상태 괜찮나요?")
	s.Require().NoError(err)
	m2, err := s.svc.PostMessage(s.ctx, room.ID, s.seller.ID, "  네, 깨끗합니다  ")
	s.Require().NoError(err)
	s.Equal("네, 깨끗합니다", m2.Content)
	s.Less(m1.ID, m2.ID)

	msgs, err := s.svc.ListMessages(s.ctx, room.ID, s.buyer.ID)
	s.Require().NoError(err)
	s.Require().Len(msgs, 2)
	s.Equal(m1.ID, msgs[0].ID)
	s.Equal(m2.ID, msgs[1].ID)

	last := s.sink.events[len(s.sink.events)-1]
	s.Equal(models.EventMessagePosted, last.Kind)
	s.Equal(m2.ID, last.MessageID)
}

func (s *TradeSuite) TestMessages_Errors() {
	room := s.newRoom()

	_, err := s.svc.PostMessage(s.ctx, room.ID, s.outsider.ID, "hi")
	s.ErrorIs(err, trade.ErrInvalidParticipant)
	_, err = s.svc.PostMessage(s.ctx, room.ID, s.buyer.ID, "   ")
	s.ErrorIs(err, trade.ErrEmptyMessage)
	_, err = s.svc.PostMessage(s.ctx, room.ID, s.buyer.ID, strings.Repeat("a", 2001))
	s.ErrorIs(err, trade.ErrMessageTooLong)
	_, err = s.svc.ListMessages(s.ctx, room.ID, s.outsider.ID)
	s.ErrorIs(err, trade.ErrInvalidParticipant)
	_, err = s.svc.PostMessage(s.ctx, "missing", s.buyer.ID, "hi")
	s.ErrorIs(err, trade.ErrRoomNotFound)
}

// --- events ---

func (s *TradeSuite) TestFailingSinkDoesNotFailOperation() {
	failing := new(MockSink)
	failing.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)
	svc := trade.NewService(s.store, zaptest.NewLogger(s.T()), failing)

	room, _, err := svc.GetOrCreateRoom(s.ctx, isbn, s.buyer.ID)
	s.Require().NoError(err)
	_, err = svc.SellerApprove(s.ctx, room.ID, s.seller.ID)
	s.Require().NoError(err)

	failing.AssertNumberOfCalls(s.T(), "Publish", 2)
}
