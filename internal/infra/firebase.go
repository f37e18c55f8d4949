// README: Firebase Admin SDK token verifier; maps custom claims onto slotwise caller roles.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Roles carried in the "role" custom claim.
const (
	RoleTechnician = "technician"
	RoleDispatcher = "dispatcher"
)

// Custom claim names set on slotwise users.
const (
	claimRole  = "role"
	claimOrgID = "org_id"
)

// FirebaseToken is the verified caller. Role is empty when the claim is
// missing or not a known role. OrgID scopes a dispatcher to one organization;
// empty means the caller is not bound to one.
type FirebaseToken struct {
	UID    string
	Role   string
	OrgID  string
	Claims map[string]interface{}
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier builds a verifier for projectID. credentialsFile is an
// optional service-account JSON path; application-default credentials are
// used otherwise.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app for %s: %w", projectID, err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return NewFirebaseToken(token.UID, token.Claims), nil
}

// NewFirebaseToken extracts the slotwise role and organization from claims.
func NewFirebaseToken(uid string, claims map[string]interface{}) *FirebaseToken {
	t := &FirebaseToken{UID: uid, Claims: claims}
	if role, _ := claims[claimRole].(string); role == RoleTechnician || role == RoleDispatcher {
		t.Role = role
	}
	if org, ok := claims[claimOrgID].(string); ok {
		t.OrgID = org
	}
	return t
}
