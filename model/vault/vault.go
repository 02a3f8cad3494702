package vault

// Member is one account belonging to a vault.
type Member struct {
	ID      string
	Address Address
}

// Info is the read-only definition of a vault (predicate): the member set,
// the canonical signer order and the approval threshold. It is fixed at
// transaction creation time; later membership changes never affect
// transactions already proposed.
type Info struct {
	VaultID         string
	Address         Address
	RequiredSigners uint
	// Members holds the vault accounts in canonical signer order. The chain
	// validates witnesses positionally, so this order determines how
	// signatures are assembled for submission.
	Members []Member
}

// IsMember checks whether the given member id belongs to the vault.
func (v Info) IsMember(memberID string) bool {
	for _, m := range v.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

// MemberIDs returns the ids of all vault members.
func (v Info) MemberIDs() []string {
	ids := make([]string, 0, len(v.Members))
	for _, m := range v.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// MemberIDsExcept returns the ids of all vault members except the given one.
func (v Info) MemberIDsExcept(memberID string) []string {
	ids := make([]string, 0, len(v.Members))
	for _, m := range v.Members {
		if m.ID == memberID {
			continue
		}
		ids = append(ids, m.ID)
	}
	return ids
}

// MemberByAddress looks up a member by account address.
func (v Info) MemberByAddress(address Address) (Member, bool) {
	for _, m := range v.Members {
		if m.Address.Equals(address) {
			return m, true
		}
	}
	return Member{}, false
}
