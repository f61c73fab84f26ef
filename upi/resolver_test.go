package upi

import (
	"bytes"
	"testing"

	"github.com/railpoint/railpoint/fieldcipher"
	"github.com/railpoint/railpoint/storage/model"
)

type fakeDirectory struct {
	orgsByUPI map[string]*model.Organization
	orgsByID  map[string]*model.Organization
	children  map[string]*model.ChildUPI
	owners    map[uint]*model.User
	accounts  []*model.PaymentAccount
}

func (d *fakeDirectory) OrganizationByUPI(upi string) (*model.Organization, error) {
	return d.orgsByUPI[upi], nil
}

func (d *fakeDirectory) OrganizationByID(id string) (*model.Organization, error) {
	return d.orgsByID[id], nil
}

func (d *fakeDirectory) ChildBindingByUPI(upi string) (*model.ChildUPI, error) {
	return d.children[upi], nil
}

func (d *fakeDirectory) OwnerByID(id uint) (*model.User, error) {
	return d.owners[id], nil
}

func (d *fakeDirectory) AccountByOrgIndexRail(orgID string, paymentIndex int, rail model.Rail) (
	*model.PaymentAccount, error,
) {
	for _, a := range d.accounts {
		if a.OrganizationID == orgID && a.PaymentIndex == paymentIndex && a.Rail == rail {
			return a, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) AccountByID(id uint) (*model.PaymentAccount, error) {
	for _, a := range d.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) UPIExists(upi string) (bool, error) {
	if _, ok := d.orgsByUPI[upi]; ok {
		return true, nil
	}
	_, ok := d.children[upi]
	return ok, nil
}

type resolverFixture struct {
	resolver *Resolver
	dir      *fakeDirectory
	cipher   *fieldcipher.Cipher
	orgUPI   string
}

// newResolverFixture builds owner 42 (verified) with one organization,
// an ACH account at payment index 1 and a SWIFT account at index 2.
func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	authority := testAuthority(t)
	cipher, err := fieldcipher.New(bytes.Repeat([]byte{0x11}, 32))
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	dir := &fakeDirectory{
		orgsByUPI: map[string]*model.Organization{},
		orgsByID:  map[string]*model.Organization{},
		children:  map[string]*model.ChildUPI{},
		owners: map[uint]*model.User{
			42: {
				ID:                 42,
				Email:              "owner@example.com",
				CompanyName:        "Acme Holdings",
				VerificationStatus: model.VerificationVerified,
			},
		},
	}

	issuer := &Issuer{Authority: authority, Probe: dir}
	orgUPI, err := issuer.Issue(42, "CORE-AB12", 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	org := &model.Organization{
		ID:                 "org-1",
		UserID:             42,
		UPI:                orgUPI,
		CoreEntityTag:      "CORE-AB12",
		LegalName:          "Acme LLC",
		VerificationStatus: model.VerificationVerified,
		Status:             model.StatusActive,
	}
	dir.orgsByUPI[orgUPI] = org
	dir.orgsByID[org.ID] = org

	ach := &model.PaymentAccount{
		ID:             1,
		UserID:         42,
		OrganizationID: org.ID,
		PaymentIndex:   1,
		Rail:           model.RailACH,
		BankName:       "First National",
		Status:         model.StatusActive,
	}
	encryptInto(t, cipher, ach, map[string]string{
		model.FieldACHRouting: "021000021",
		model.FieldACHAccount: "123456789",
	})
	swift := &model.PaymentAccount{
		ID:             2,
		UserID:         42,
		OrganizationID: org.ID,
		PaymentIndex:   2,
		Rail:           model.RailSWIFT,
		BankName:       "First National",
		Status:         model.StatusActive,
	}
	encryptInto(t, cipher, swift, map[string]string{
		model.FieldSwiftBIC:    "FNBAUS33",
		model.FieldIBAN:        "DE89370400440532013000",
		model.FieldBankAddress: "1 Main St",
		model.FieldBankCountry: "US",
		model.FieldBankCity:    "New York",
	})
	dir.accounts = []*model.PaymentAccount{ach, swift}

	return &resolverFixture{
		resolver: &Resolver{Authority: authority, Cipher: cipher, Directory: dir},
		dir:      dir,
		cipher:   cipher,
		orgUPI:   orgUPI,
	}
}

func encryptInto(t *testing.T, c *fieldcipher.Cipher, acc *model.PaymentAccount, fields map[string]string) {
	t.Helper()
	enc := make(map[string]model.EncryptedField, len(fields))
	for name, value := range fields {
		nonce, ct, err := c.Encrypt(value)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		enc[name] = model.EncryptedField{Nonce: nonce, Ciphertext: ct}
	}
	if err := acc.SetEncryptedFields(enc); err != nil {
		t.Fatalf("SetEncryptedFields failed: %v", err)
	}
}

func TestResolvePrimaryACH(t *testing.T) {
	f := newResolverFixture(t)
	res, err := f.resolver.Resolve(f.orgUPI, model.RailACH)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Coordinates.RoutingNumber != "021000021" || res.Coordinates.AccountNumber != "123456789" {
		t.Errorf("wrong coordinates: %+v", res.Coordinates)
	}
	if res.Coordinates.BankName != "First National" {
		t.Errorf("bank name = %q", res.Coordinates.BankName)
	}
	// ACH must not expose SWIFT fields even when stored.
	if res.Coordinates.SwiftBIC != "" || res.Coordinates.IBAN != "" {
		t.Error("ACH resolution leaked SWIFT fields")
	}
	if res.Owner == nil || res.Owner.ID != 42 {
		t.Error("resolution did not chain back to the owner")
	}
}

func TestResolveNormalizesInput(t *testing.T) {
	f := newResolverFixture(t)
	lowered := "  " + stringsToLower(f.orgUPI) + "\n"
	if _, err := f.resolver.Resolve(lowered, model.RailACH); err != nil {
		t.Fatalf("Resolve of lowercased padded input failed: %v", err)
	}
}

func stringsToLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestResolveRailMismatch(t *testing.T) {
	f := newResolverFixture(t)
	// The index-1 account is ACH; SWIFT on the same identifier must miss.
	_, err := f.resolver.Resolve(f.orgUPI, model.RailSWIFT)
	if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("want NotFoundError, got %T (%v)", err, err)
	}
}

func TestResolveMalformed(t *testing.T) {
	f := newResolverFixture(t)
	_, err := f.resolver.Resolve("not-a-upi", model.RailACH)
	if _, ok := err.(FormatError); !ok {
		t.Fatalf("want FormatError, got %T", err)
	}
}

func TestResolveCorruptedSignature(t *testing.T) {
	f := newResolverFixture(t)
	corrupted := flipLastChar(f.orgUPI)
	if f.dir.orgsByUPI[corrupted] == nil {
		// The corrupted string no longer matches the stored org UPI, so
		// rebind it to exercise the signature check rather than lookup.
		f.dir.orgsByUPI[corrupted] = f.dir.orgsByUPI[f.orgUPI]
	}
	_, err := f.resolver.Resolve(corrupted, model.RailACH)
	if _, ok := err.(SignatureError); !ok {
		t.Fatalf("want SignatureError, got %T (%v)", err, err)
	}
}

func TestResolveSingleCharFlipsNeverSucceed(t *testing.T) {
	f := newResolverFixture(t)
	for i := 0; i < len(f.orgUPI); i++ {
		flipped := []byte(f.orgUPI)
		if flipped[i] != 'X' {
			flipped[i] = 'X'
		} else {
			flipped[i] = 'Y'
		}
		mutated := string(flipped)
		f.dir.orgsByUPI[mutated] = f.dir.orgsByUPI[f.orgUPI]
		if _, err := f.resolver.Resolve(mutated, model.RailACH); err == nil {
			t.Fatalf("flip at position %d resolved successfully", i)
		}
		delete(f.dir.orgsByUPI, mutated)
	}
}

func TestResolveUnverifiedOwnerFailsClosed(t *testing.T) {
	f := newResolverFixture(t)
	f.dir.owners[42].VerificationStatus = model.VerificationRejected
	_, err := f.resolver.Resolve(f.orgUPI, model.RailACH)
	if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("want NotFoundError for revoked owner, got %T", err)
	}
}

func TestResolveDeactivatedOrganization(t *testing.T) {
	f := newResolverFixture(t)
	f.dir.orgsByUPI[f.orgUPI].Status = model.StatusDeactivated
	_, err := f.resolver.Resolve(f.orgUPI, model.RailACH)
	if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("want NotFoundError for deactivated org, got %T", err)
	}
}

// A crafted identifier carrying owner A's namespace but pointing at owner
// B's organization must fail as not found, not leak B's coordinates.
func TestResolveForeignNamespaceSplice(t *testing.T) {
	f := newResolverFixture(t)
	authority := f.resolver.Authority

	parts, err := Decode(f.orgUPI)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	foreignNS := authority.NamespaceFor(9001)
	if foreignNS == parts.Namespace {
		t.Skip("namespace collision between test owners")
	}
	spliced := Parts{
		Namespace:    foreignNS,
		PaymentIndex: parts.PaymentIndex,
		CoreSegment:  parts.CoreSegment,
	}
	spliced.Signature = authority.Sign(spliced.Namespace, spliced.CoreSegment, spliced.PaymentIndex)
	crafted := Encode(spliced)

	// Point the crafted string at owner 42's org row.
	f.dir.orgsByUPI[crafted] = f.dir.orgsByUPI[f.orgUPI]

	_, err = f.resolver.Resolve(crafted, model.RailACH)
	if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("want NotFoundError for foreign namespace, got %T (%v)", err, err)
	}
}

func TestResolveChildBinding(t *testing.T) {
	f := newResolverFixture(t)
	issuer := &Issuer{Authority: f.resolver.Authority, Probe: f.dir}
	childUPI, _, err := issuer.IssueUnique(42, 5)
	if err != nil {
		t.Fatalf("IssueUnique failed: %v", err)
	}
	f.dir.children[childUPI] = &model.ChildUPI{
		UPI:              childUPI,
		OrganizationID:   "org-1",
		PaymentAccountID: 1,
		Status:           model.StatusActive,
	}

	// The child binding resolves by exact row, ignoring the index-5
	// segment of the identifier.
	res, err := f.resolver.Resolve(childUPI, model.RailACH)
	if err != nil {
		t.Fatalf("Resolve of child binding failed: %v", err)
	}
	if res.Coordinates.RoutingNumber != "021000021" {
		t.Errorf("wrong coordinates: %+v", res.Coordinates)
	}

	// Disabling the binding makes resolution fail with GoneError while
	// the identifier stays format- and signature-valid.
	f.dir.children[childUPI].Status = model.StatusDisabled
	_, err = f.resolver.Resolve(childUPI, model.RailACH)
	if _, ok := err.(GoneError); !ok {
		t.Fatalf("want GoneError for disabled child, got %T", err)
	}
	parts, err := Decode(childUPI)
	if err != nil {
		t.Fatalf("disabled child UPI no longer decodes: %v", err)
	}
	if !f.resolver.Authority.VerifySignature(parts) {
		t.Error("disabled child UPI signature became invalid")
	}
}

func TestResolveChildRailMismatch(t *testing.T) {
	f := newResolverFixture(t)
	issuer := &Issuer{Authority: f.resolver.Authority, Probe: f.dir}
	childUPI, _, err := issuer.IssueUnique(42, 6)
	if err != nil {
		t.Fatalf("IssueUnique failed: %v", err)
	}
	f.dir.children[childUPI] = &model.ChildUPI{
		UPI:              childUPI,
		OrganizationID:   "org-1",
		PaymentAccountID: 1, // ACH account
		Status:           model.StatusActive,
	}
	_, err = f.resolver.Resolve(childUPI, model.RailSWIFT)
	if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("want NotFoundError on rail mismatch, got %T", err)
	}
}

func TestResolveDisabledAccount(t *testing.T) {
	f := newResolverFixture(t)
	f.dir.accounts[0].Status = model.StatusDisabled
	_, err := f.resolver.Resolve(f.orgUPI, model.RailACH)
	if _, ok := err.(GoneError); !ok {
		t.Fatalf("want GoneError for disabled account, got %T", err)
	}
}

func TestResolveSwiftCoordinates(t *testing.T) {
	f := newResolverFixture(t)
	issuer := &Issuer{Authority: f.resolver.Authority, Probe: f.dir}
	swiftUPI, err := issuer.Issue(42, "CORE-AB12", 2)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	f.dir.orgsByUPI[swiftUPI] = f.dir.orgsByID["org-1"]

	res, err := f.resolver.Resolve(swiftUPI, model.RailSWIFT)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	c := res.Coordinates
	if c.SwiftBIC != "FNBAUS33" || c.IBAN != "DE89370400440532013000" {
		t.Errorf("wrong SWIFT coordinates: %+v", c)
	}
	if c.BankCountry != "US" || c.BankCity != "New York" || c.BankAddress != "1 Main St" {
		t.Errorf("wrong bank location: %+v", c)
	}
	if c.RoutingNumber != "" || c.AccountNumber != "" {
		t.Error("SWIFT resolution leaked routing/account fields")
	}
}

// A field that no longer decrypts is omitted while the rest of the record
// still resolves.
func TestResolveOmitsUndecryptableField(t *testing.T) {
	f := newResolverFixture(t)
	acc := f.dir.accounts[0]
	enc, err := acc.EncryptedFields()
	if err != nil {
		t.Fatalf("EncryptedFields failed: %v", err)
	}
	blob := enc[model.FieldACHAccount]
	blob.Ciphertext = "AAAA" + blob.Ciphertext[4:]
	enc[model.FieldACHAccount] = blob
	if err := acc.SetEncryptedFields(enc); err != nil {
		t.Fatalf("SetEncryptedFields failed: %v", err)
	}

	res, err := f.resolver.Resolve(f.orgUPI, model.RailACH)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Coordinates.AccountNumber != "" {
		t.Error("corrupted field was not omitted")
	}
	if res.Coordinates.RoutingNumber != "021000021" {
		t.Error("intact field did not survive the partial failure")
	}
}

func TestResolveUnknownIdentifier(t *testing.T) {
	f := newResolverFixture(t)
	_, err := f.resolver.Resolve("AA00BBBBCCCCCC", model.RailACH)
	if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("want NotFoundError, got %T", err)
	}
}
