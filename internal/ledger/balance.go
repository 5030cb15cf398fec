package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// GroupInfo is the minimal group shape the resolver needs: identity plus the
// current member list. The caller maps its storage model down to this.
type GroupInfo struct {
	ID      string
	Name    string
	Members []string
}

func (g GroupInfo) hasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// FriendGroupBalance is the viewer's net position versus one friend within
// one group.
type FriendGroupBalance struct {
	GroupID   string          `json:"group_id"`
	GroupName string          `json:"group_name"`
	Net       decimal.Decimal `json:"net_balance"`
}

// FriendBalance is the aggregation root exposed to the UI: the viewer's
// position versus one friend, split into direct and group activity.
// Positive amounts mean the friend owes the viewer. Always satisfies
// Total == Direct + sum of Groups nets.
type FriendBalance struct {
	FriendID string               `json:"friend_id"`
	Direct   decimal.Decimal      `json:"direct_balance"`
	Group    decimal.Decimal      `json:"group_balance"`
	Total    decimal.Decimal      `json:"total_balance"`
	Groups   []FriendGroupBalance `json:"groups,omitempty"`
}

// Option configures balance resolution.
type Option func(*options)

type options struct {
	formerMembers bool
}

// WithFormerMembers includes groups where the viewer or friend is no longer
// a current member. Historical entries always stay in the ledger; this only
// controls whether they surface in the live balance view.
func WithFormerMembers(include bool) Option {
	return func(o *options) { o.formerMembers = include }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AggregateDirect folds direct (group-less) entries into the viewer's net
// balance per counterparty. Positive means the counterparty owes the viewer.
//
// The fold is commutative, so entry order never changes the result, and
// zero-net counterparties are omitted for compact views.
func AggregateDirect(entries []Entry, viewerID string) map[string]decimal.Decimal {
	return aggregate(entries, viewerID, "")
}

// AggregateGroup is the same fold restricted to entries scoped to groupID.
func AggregateGroup(entries []Entry, groupID, viewerID string) map[string]decimal.Decimal {
	return aggregate(entries, viewerID, groupID)
}

func aggregate(entries []Entry, viewerID, groupID string) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.GroupID != groupID {
			continue
		}
		switch viewerID {
		case e.ToUser:
			balances[e.FromUser] = balances[e.FromUser].Add(e.Amount)
		case e.FromUser:
			balances[e.ToUser] = balances[e.ToUser].Sub(e.Amount)
		}
	}
	for id, net := range balances {
		if net.IsZero() {
			delete(balances, id)
		}
	}
	return balances
}

// GroupBalancesForFriend computes the viewer's net versus one friend in every
// shared group. Only groups where both are current members contribute unless
// WithFormerMembers is set. A positive net in one group and a negative net in
// another are both preserved; they never cancel before being surfaced.
func GroupBalancesForFriend(entries []Entry, viewerID, friendID string, groups []GroupInfo, opts ...Option) []FriendGroupBalance {
	o := buildOptions(opts)

	var result []FriendGroupBalance
	for _, g := range sortedGroups(groups) {
		if !o.formerMembers && !(g.hasMember(viewerID) && g.hasMember(friendID)) {
			continue
		}
		net := AggregateGroup(entries, g.ID, viewerID)[friendID]
		if net.IsZero() {
			continue
		}
		result = append(result, FriendGroupBalance{
			GroupID:   g.ID,
			GroupName: g.Name,
			Net:       net,
		})
	}
	return result
}

// FriendBalances computes the viewer's FriendBalance against every
// counterparty they have direct activity with or share a group with.
// Friends are returned in ID order for determinism.
func FriendBalances(entries []Entry, viewerID string, groups []GroupInfo, opts ...Option) []FriendBalance {
	o := buildOptions(opts)
	direct := AggregateDirect(entries, viewerID)

	friendIDs := make(map[string]bool)
	for id := range direct {
		friendIDs[id] = true
	}
	for _, e := range entries {
		if e.GroupID == "" {
			continue
		}
		switch viewerID {
		case e.ToUser:
			friendIDs[e.FromUser] = true
		case e.FromUser:
			friendIDs[e.ToUser] = true
		}
	}
	for _, g := range groups {
		if !g.hasMember(viewerID) {
			continue
		}
		for _, m := range g.Members {
			if m != viewerID {
				friendIDs[m] = true
			}
		}
	}

	ids := make([]string, 0, len(friendIDs))
	for id := range friendIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var balances []FriendBalance
	for _, id := range ids {
		var optArgs []Option
		if o.formerMembers {
			optArgs = append(optArgs, WithFormerMembers(true))
		}
		groupBalances := GroupBalancesForFriend(entries, viewerID, id, groups, optArgs...)

		groupNet := decimal.Zero
		for _, gb := range groupBalances {
			groupNet = groupNet.Add(gb.Net)
		}
		directNet := direct[id]

		if directNet.IsZero() && groupNet.IsZero() && len(groupBalances) == 0 {
			continue
		}
		balances = append(balances, FriendBalance{
			FriendID: id,
			Direct:   directNet,
			Group:    groupNet,
			Total:    directNet.Add(groupNet),
			Groups:   groupBalances,
		})
	}
	return balances
}

func sortedGroups(groups []GroupInfo) []GroupInfo {
	sorted := make([]GroupInfo, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}
