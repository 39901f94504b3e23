package auth

// Owns reports whether the identity may act on a resource owned by ownerID.
func Owns(identityID, ownerID int64) bool {
	return identityID > 0 && identityID == ownerID
}
