package storefront

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/soukhub/go-storecache/cache"
	"github.com/soukhub/go-storecache/entity"
	"github.com/soukhub/go-storecache/querycache"
	"github.com/soukhub/go-storecache/transport"
)

const addressType = "address"

// AddressesData is the normalized address book, in API order.
type AddressesData struct {
	Items *entity.Store[Address]
}

// Snapshot implements querycache.Snapshotter.
func (d *AddressesData) Snapshot() any {
	return &AddressesData{Items: d.Items.Clone()}
}

func newAddressStore() *entity.Store[Address] {
	return entity.NewStore(func(a Address) string { return a.ID })
}

// GetAddresses reads the address book. Wire contract: {"data": [addresses]}.
var GetAddresses = &querycache.Endpoint{
	Name: "addresses.list",
	Request: func(any) transport.Request {
		return transport.Request{Method: http.MethodGet, Path: "/addresses"}
	},
	Transform: func(body []byte) (any, error) {
		env, err := decode[listEnvelope[addressWire]](body)
		if err != nil {
			return nil, err
		}
		items := newAddressStore()
		for _, w := range env.Data {
			items.AddOne(w.record())
		}
		return &AddressesData{Items: items}, nil
	},
	ProvidesTags: func(data any) []cache.Tag {
		d, ok := data.(*AddressesData)
		if !ok || d == nil {
			return nil
		}
		tags := []cache.Tag{cache.CollectionTag(addressType)}
		for _, id := range d.Items.IDs() {
			tags = append(tags, cache.EntityTag(addressType, id))
		}
		return tags
	},
}

// CreateAddressArgs carries the new address plus the client-generated
// placeholder id the optimistic phase inserts under. NewCreateAddressArgs
// populates TempID; the commit phase swaps it for the server-assigned id.
type CreateAddressArgs struct {
	TempID  string
	City    string
	Default bool
}

// NewCreateAddressArgs builds create arguments with a fresh placeholder id.
func NewCreateAddressArgs(city string, isDefault bool) CreateAddressArgs {
	return CreateAddressArgs{
		TempID:  "tmp-" + uuid.NewString(),
		City:    city,
		Default: isDefault,
	}
}

// CreateAddress adds an address. The optimistic row appears immediately
// under TempID; commit removes it and upserts the authoritative record.
var CreateAddress = &querycache.Mutation{
	Name: "addresses.create",
	Request: func(args any) transport.Request {
		a := args.(CreateAddressArgs)
		return transport.Request{
			Method: http.MethodPost,
			Path:   "/addresses",
			Body:   map[string]any{"city": a.City, "default": a.Default},
		}
	},
	Transform: func(body []byte) (any, error) {
		env, err := decode[objectEnvelope[addressWire]](body)
		if err != nil {
			return nil, err
		}
		return env.Data.record(), nil
	},
	Optimistic: func(p *querycache.Patcher, args any) {
		a := args.(CreateAddressArgs)
		p.Update(GetAddresses, nil,
			func(data any) any {
				d, ok := data.(*AddressesData)
				if !ok || d == nil {
					return data
				}
				d.Items.AddOne(Address{ID: a.TempID, City: a.City, Default: a.Default})
				return d
			},
			func(data any) any {
				d, ok := data.(*AddressesData)
				if !ok || d == nil {
					return data
				}
				d.Items.RemoveOne(a.TempID)
				return d
			},
		)
	},
	OnCommit: func(p *querycache.Patcher, args any, result any) {
		created, ok := result.(Address)
		if !ok {
			return
		}
		a := args.(CreateAddressArgs)
		p.Write(GetAddresses, nil, func(data any) any {
			d, ok := data.(*AddressesData)
			if !ok || d == nil {
				return data
			}
			d.Items.RemoveOne(a.TempID)
			d.Items.UpsertOne(created)
			return d
		})
	},
	InvalidatesTags: func(_, _ any) []cache.Tag {
		// a new row changes what "all addresses" means
		return []cache.Tag{cache.CollectionTag(addressType)}
	},
}

// UpdateAddressArgs carries the changed fields. An empty City leaves the
// city unchanged.
type UpdateAddressArgs struct {
	ID      string
	City    string
	Default bool
}

// UpdateAddress edits an address. Setting Default optimistically unsets
// every other default; the inverse restores exactly the records the patch
// touched, so a failed update leaves no other row altered.
var UpdateAddress = &querycache.Mutation{
	Name: "addresses.update",
	Request: func(args any) transport.Request {
		a := args.(UpdateAddressArgs)
		body := map[string]any{"default": a.Default}
		if a.City != "" {
			body["city"] = a.City
		}
		return transport.Request{
			Method: http.MethodPut,
			Path:   "/addresses/" + a.ID,
			Body:   body,
		}
	},
	Optimistic: func(p *querycache.Patcher, args any) {
		a := args.(UpdateAddressArgs)

		var priors []Address
		p.Update(GetAddresses, nil,
			func(data any) any {
				d, ok := data.(*AddressesData)
				if !ok || d == nil {
					return data
				}
				for _, rec := range d.Items.SelectAll() {
					if rec.ID == a.ID || (a.Default && rec.Default) {
						priors = append(priors, querycache.CopyOf(rec))
					}
				}
				if a.Default {
					for _, rec := range d.Items.SelectAll() {
						if rec.ID != a.ID && rec.Default {
							d.Items.UpdateOne(rec.ID, func(addr Address) Address {
								addr.Default = false
								return addr
							})
						}
					}
				}
				d.Items.UpdateOne(a.ID, func(addr Address) Address {
					if a.City != "" {
						addr.City = a.City
					}
					addr.Default = a.Default
					return addr
				})
				return d
			},
			func(data any) any {
				d, ok := data.(*AddressesData)
				if !ok || d == nil {
					return data
				}
				for _, prior := range priors {
					d.Items.UpsertOne(prior)
				}
				return d
			},
		)
	},
	InvalidatesTags: func(args, _ any) []cache.Tag {
		a := args.(UpdateAddressArgs)
		return []cache.Tag{cache.EntityTag(addressType, a.ID)}
	},
}

// DeleteAddressArgs identifies the address to delete.
type DeleteAddressArgs struct {
	ID string
}

// DeleteAddress removes an address, optimistically dropping the cached row.
var DeleteAddress = &querycache.Mutation{
	Name: "addresses.delete",
	Request: func(args any) transport.Request {
		a := args.(DeleteAddressArgs)
		return transport.Request{
			Method: http.MethodDelete,
			Path:   "/addresses/" + a.ID,
		}
	},
	Optimistic: func(p *querycache.Patcher, args any) {
		a := args.(DeleteAddressArgs)

		var prior Address
		var at int
		var had bool
		p.Update(GetAddresses, nil,
			func(data any) any {
				d, ok := data.(*AddressesData)
				if !ok || d == nil {
					return data
				}
				if rec, ok := d.Items.SelectByID(a.ID); ok {
					prior = querycache.CopyOf(rec)
					at = d.Items.IndexOf(a.ID)
					had = true
				}
				d.Items.RemoveOne(a.ID)
				return d
			},
			func(data any) any {
				d, ok := data.(*AddressesData)
				if !ok || d == nil || !had {
					return data
				}
				d.Items.InsertAt(at, prior)
				return d
			},
		)
	},
	InvalidatesTags: func(args, _ any) []cache.Tag {
		a := args.(DeleteAddressArgs)
		return []cache.Tag{
			cache.EntityTag(addressType, a.ID),
			cache.CollectionTag(addressType),
		}
	},
}
