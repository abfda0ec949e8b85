package guard

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

func TestText(t *testing.T) {
	if err := Text("op", "name", "  ", 10); !aggregates.IsCode(err, aggregates.CodeInvalidParameter) {
		t.Fatalf("blank text: want invalid_parameter got=%v", err)
	}
	if err := Text("op", "name", strings.Repeat("é", 11), 10); !aggregates.IsCode(err, aggregates.CodeInvalidParameter) {
		t.Fatalf("long text: want invalid_parameter got=%v", err)
	}
	if err := Text("op", "name", strings.Repeat("é", 10), 10); err != nil {
		t.Fatalf("rune-bounded text: unexpected err: %v", err)
	}
}

func TestMulNoOverflow(t *testing.T) {
	cases := []struct {
		a, b    int64
		want    int64
		wantErr bool
	}{
		{a: 10, b: 100, want: 1000},
		{a: 0, b: math.MaxInt64, want: 0},
		{a: math.MaxInt64, b: 1, want: math.MaxInt64},
		{a: math.MaxInt64/2 + 1, b: 2, wantErr: true},
		{a: -1, b: 2, wantErr: true},
	}
	for _, tc := range cases {
		got, err := MulNoOverflow("op", tc.a, tc.b)
		if tc.wantErr {
			if !aggregates.IsCode(err, aggregates.CodeInvalidParameter) {
				t.Fatalf("MulNoOverflow(%d,%d): want invalid_parameter got=%v", tc.a, tc.b, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("MulNoOverflow(%d,%d): want=%d got=%d err=%v", tc.a, tc.b, tc.want, got, err)
		}
	}
}

func TestAddNoOverflow(t *testing.T) {
	if _, err := AddNoOverflow("op", math.MaxInt64, 1); err == nil {
		t.Fatalf("expected overflow")
	}
	if got, err := AddNoOverflow("op", 5, 6); err != nil || got != 11 {
		t.Fatalf("AddNoOverflow: want=11 got=%d err=%v", got, err)
	}
}

func TestIdentity(t *testing.T) {
	for _, id := range []string{"", "  ", groupbuy.NullIdentity, strings.ToUpper(groupbuy.NullIdentity)} {
		if err := Identity("op", id); err == nil {
			t.Fatalf("Identity(%q): expected rejection", id)
		}
	}
	if err := Identity("op", "alice"); err != nil {
		t.Fatalf("Identity(alice): unexpected err: %v", err)
	}
}

func TestFutureDeadline(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := FutureDeadline("op", now, now, time.Hour); err == nil {
		t.Fatalf("deadline==now: expected error")
	}
	if err := FutureDeadline("op", now.Add(2*time.Hour), now, time.Hour); err == nil {
		t.Fatalf("deadline beyond max: expected error")
	}
	if err := FutureDeadline("op", now.Add(time.Minute), now, time.Hour); err != nil {
		t.Fatalf("valid deadline: %v", err)
	}
}

func TestCampaignOpen(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := CampaignOpen("op", nil, now); !aggregates.IsCode(err, aggregates.CodeNotFound) {
		t.Fatalf("nil campaign: want not_found got=%v", err)
	}
	c := &groupbuy.Campaign{ID: 1, Active: false, Deadline: now.Add(time.Hour)}
	if err := CampaignOpen("op", c, now); !aggregates.IsCode(err, aggregates.CodeCampaignNotEligible) {
		t.Fatalf("inactive: want campaign_not_eligible got=%v", err)
	}
	c.Active = true
	if err := CampaignOpen("op", c, now.Add(time.Hour)); !aggregates.IsCode(err, aggregates.CodeCampaignNotEligible) {
		t.Fatalf("expired: want campaign_not_eligible got=%v", err)
	}
	if err := CampaignOpen("op", c, now); err != nil {
		t.Fatalf("open campaign: %v", err)
	}
}

func TestAuthorization(t *testing.T) {
	c := &groupbuy.Campaign{ID: 1, Organizer: "org"}
	o := &groupbuy.Order{ID: 2, Participant: "alice"}
	admin := groupbuy.Actor{Identity: "root", Role: groupbuy.RoleAdmin}

	if err := Organizer("op", groupbuy.Actor{Identity: "bob"}, c); !aggregates.IsCode(err, aggregates.CodeUnauthorized) {
		t.Fatalf("Organizer(bob): want unauthorized got=%v", err)
	}
	if err := OrganizerOrAdmin("op", admin, c); err != nil {
		t.Fatalf("OrganizerOrAdmin(admin): %v", err)
	}
	if err := OrderParticipant("op", groupbuy.Actor{Identity: " alice "}, o); err != nil {
		t.Fatalf("OrderParticipant(alice): %v", err)
	}
	if err := ParticipantOrAdmin("op", groupbuy.Actor{Identity: "bob"}, o); err == nil {
		t.Fatalf("ParticipantOrAdmin(bob): expected rejection")
	}
	if err := Admin("op", groupbuy.Actor{Identity: "alice"}); err == nil {
		t.Fatalf("Admin(alice): expected rejection")
	}
	if err := SelfOrAdmin("op", groupbuy.Actor{Identity: "alice"}, "alice"); err != nil {
		t.Fatalf("SelfOrAdmin(alice): %v", err)
	}
}

func TestOrderStatus(t *testing.T) {
	o := &groupbuy.Order{ID: 9, Status: groupbuy.OrderProcessing}
	if err := OrderStatus("op", o, groupbuy.OrderPending); !aggregates.IsCode(err, aggregates.CodeInvalidState) {
		t.Fatalf("want invalid_state got=%v", err)
	}
	if err := OrderStatus("op", o, groupbuy.OrderPending, groupbuy.OrderProcessing); err != nil {
		t.Fatalf("allowed status: %v", err)
	}
}

func TestTransition(t *testing.T) {
	cases := []struct {
		from groupbuy.OrderStatus
		to   groupbuy.OrderStatus
		ok   bool
	}{
		{groupbuy.OrderPending, groupbuy.OrderProcessing, true},
		{groupbuy.OrderPending, groupbuy.OrderCancelled, true},
		{groupbuy.OrderPending, groupbuy.OrderCompleted, false},
		{groupbuy.OrderProcessing, groupbuy.OrderCompleted, true},
		{groupbuy.OrderProcessing, groupbuy.OrderRefunded, true},
		{groupbuy.OrderProcessing, groupbuy.OrderCancelled, false},
		{groupbuy.OrderCompleted, groupbuy.OrderRefunded, false},
		{groupbuy.OrderCancelled, groupbuy.OrderCancelled, false},
	}
	for _, tc := range cases {
		err := Transition("op", &groupbuy.Order{ID: 1, Status: tc.from}, tc.to)
		if tc.ok && err != nil {
			t.Fatalf("%s -> %s: %v", tc.from, tc.to, err)
		}
		if !tc.ok && !aggregates.IsCode(err, aggregates.CodeInvalidState) {
			t.Fatalf("%s -> %s: want invalid_state got=%v", tc.from, tc.to, err)
		}
	}
}
