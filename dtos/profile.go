package dtos

// ProfilePatch is the body of PATCH /profiles?id=eq.<user>. Nil fields are left unchanged.
type ProfilePatch struct {
	FullName *string `json:"full_name,omitempty" binding:"omitempty,max=120"`
	Phone    *string `json:"phone,omitempty" binding:"omitempty,max=32"`
	Address  *string `json:"address,omitempty" binding:"omitempty,max=255"`
}
