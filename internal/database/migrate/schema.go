package migrate

import (
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const textSize = 2147483647

var (
	datetime = map[string]string{dialect.MySQL: "datetime(6)"}
	money    = map[string]string{dialect.MySQL: "decimal(10,2)", dialect.SQLite: "decimal(10,2)"}
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "username", Type: field.TypeString, Unique: true, Size: 150},
		{Name: "email", Type: field.TypeString, Unique: true, Nullable: true},
		{Name: "phone", Type: field.TypeString, Unique: true, Nullable: true, Size: 10},
		{Name: "pending_kind", Type: field.TypeEnum, Nullable: true, Enums: []string{"email", "phone"}},
		{Name: "pending_value", Type: field.TypeString, Nullable: true},
		{Name: "pending_otp_id", Type: field.TypeInt64, Nullable: true},
		{Name: "first_name", Type: field.TypeString, Default: ""},
		{Name: "last_name", Type: field.TypeString, Default: ""},
		{Name: "about_me", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "profile_picture_url", Type: field.TypeString, Default: ""},
		{Name: "baby_gender", Type: field.TypeEnum, Enums: []string{"unisex", "male", "female"}, Default: "unisex"},
		{Name: "baby_age", Type: field.TypeInt, Default: 0},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "is_staff", Type: field.TypeBool, Default: false},
		{Name: "last_login", Type: field.TypeTime, Nullable: true, SchemaType: datetime},
		{Name: "date_joined", Type: field.TypeTime, SchemaType: datetime},
	}
	// UsersTable holds the schema information for the "users" table.
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
	}

	// GroupsColumns holds the columns for the "auth_groups" table.
	GroupsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "name", Type: field.TypeString, Unique: true, Size: 150},
	}
	// GroupsTable holds the schema information for the "auth_groups" table.
	GroupsTable = &schema.Table{
		Name:       "auth_groups",
		Columns:    GroupsColumns,
		PrimaryKey: []*schema.Column{GroupsColumns[0]},
	}

	// UserGroupsColumns holds the columns for the "user_groups" table.
	UserGroupsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "group_id", Type: field.TypeInt64},
	}
	// UserGroupsTable holds the schema information for the "user_groups" table.
	UserGroupsTable = &schema.Table{
		Name:       "user_groups",
		Columns:    UserGroupsColumns,
		PrimaryKey: []*schema.Column{UserGroupsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "user_groups_users_user",
				Columns:    []*schema.Column{UserGroupsColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_groups_auth_groups_group",
				Columns:    []*schema.Column{UserGroupsColumns[2]},
				RefColumns: []*schema.Column{GroupsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "usergroup_user_id_group_id",
				Unique:  true,
				Columns: []*schema.Column{UserGroupsColumns[1], UserGroupsColumns[2]},
			},
		},
	}

	// GroupPermissionsColumns holds the columns for the "group_permissions" table.
	GroupPermissionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "group_id", Type: field.TypeInt64},
		{Name: "codename", Type: field.TypeString, Size: 100},
	}
	// GroupPermissionsTable holds the schema information for the "group_permissions" table.
	GroupPermissionsTable = &schema.Table{
		Name:       "group_permissions",
		Columns:    GroupPermissionsColumns,
		PrimaryKey: []*schema.Column{GroupPermissionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "group_permissions_auth_groups_group",
				Columns:    []*schema.Column{GroupPermissionsColumns[1]},
				RefColumns: []*schema.Column{GroupsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "grouppermission_group_id_codename",
				Unique:  true,
				Columns: []*schema.Column{GroupPermissionsColumns[1], GroupPermissionsColumns[2]},
			},
		},
	}

	// OtpsColumns holds the columns for the "otps" table.
	OtpsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "code_hash", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime, SchemaType: datetime},
		{Name: "expired_at", Type: field.TypeTime, SchemaType: datetime},
	}
	// OtpsTable holds the schema information for the "otps" table.
	OtpsTable = &schema.Table{
		Name:       "otps",
		Columns:    OtpsColumns,
		PrimaryKey: []*schema.Column{OtpsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "otps_users_user",
				Columns:    []*schema.Column{OtpsColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "otp_user_id_expired_at",
				Columns: []*schema.Column{OtpsColumns[1], OtpsColumns[4]},
			},
		},
	}

	// AgreementsColumns holds the columns for the "agreements" table.
	AgreementsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "agreement", Type: field.TypeString, Size: textSize},
		{Name: "agreement_type", Type: field.TypeEnum, Enums: []string{"terms", "privacy", "contract"}},
		{Name: "released_date", Type: field.TypeTime, SchemaType: datetime},
		{Name: "version", Type: field.TypeString, Size: 20},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "parent_id", Type: field.TypeInt64, Nullable: true},
	}
	// AgreementsTable holds the schema information for the "agreements" table.
	AgreementsTable = &schema.Table{
		Name:       "agreements",
		Columns:    AgreementsColumns,
		PrimaryKey: []*schema.Column{AgreementsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "agreements_agreements_parent",
				Columns:    []*schema.Column{AgreementsColumns[6]},
				RefColumns: []*schema.Column{AgreementsColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
	}

	// AcceptedAgreementsColumns holds the columns for the "accepted_agreements" table.
	AcceptedAgreementsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "agreement_id", Type: field.TypeInt64},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "ip_address", Type: field.TypeString, Nullable: true, Size: 45},
		{Name: "accepted_at", Type: field.TypeTime, SchemaType: datetime},
	}
	// AcceptedAgreementsTable holds the schema information for the "accepted_agreements" table.
	AcceptedAgreementsTable = &schema.Table{
		Name:       "accepted_agreements",
		Columns:    AcceptedAgreementsColumns,
		PrimaryKey: []*schema.Column{AcceptedAgreementsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "accepted_agreements_agreements_agreement",
				Columns:    []*schema.Column{AcceptedAgreementsColumns[1]},
				RefColumns: []*schema.Column{AgreementsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "accepted_agreements_users_user",
				Columns:    []*schema.Column{AcceptedAgreementsColumns[2]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "acceptedagreement_agreement_id_user_id",
				Unique:  true,
				Columns: []*schema.Column{AcceptedAgreementsColumns[1], AcceptedAgreementsColumns[2]},
			},
		},
	}

	// UsageRangesColumns holds the columns for the "usage_ranges" table.
	UsageRangesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "unique_id", Type: field.TypeInt, Unique: true},
		{Name: "name", Type: field.TypeString, Size: 100},
	}
	// UsageRangesTable holds the schema information for the "usage_ranges" table.
	UsageRangesTable = &schema.Table{
		Name:       "usage_ranges",
		Columns:    UsageRangesColumns,
		PrimaryKey: []*schema.Column{UsageRangesColumns[0]},
	}

	// CategoriesColumns holds the columns for the "categories" table.
	CategoriesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "name", Type: field.TypeString, Size: 100},
		{Name: "icon", Type: field.TypeString, Nullable: true},
		{Name: "parent_id", Type: field.TypeInt64, Nullable: true},
		{Name: "min_usage_range_id", Type: field.TypeInt64, Nullable: true},
		{Name: "max_usage_range_id", Type: field.TypeInt64, Nullable: true},
	}
	// CategoriesTable holds the schema information for the "categories" table.
	CategoriesTable = &schema.Table{
		Name:       "categories",
		Columns:    CategoriesColumns,
		PrimaryKey: []*schema.Column{CategoriesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "categories_categories_parent",
				Columns:    []*schema.Column{CategoriesColumns[3]},
				RefColumns: []*schema.Column{CategoriesColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "categories_usage_ranges_min",
				Columns:    []*schema.Column{CategoriesColumns[4]},
				RefColumns: []*schema.Column{UsageRangesColumns[0]},
				OnDelete:   schema.SetNull,
			},
			{
				Symbol:     "categories_usage_ranges_max",
				Columns:    []*schema.Column{CategoriesColumns[5]},
				RefColumns: []*schema.Column{UsageRangesColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
	}

	// BrandsColumns holds the columns for the "brands" table.
	BrandsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "name", Type: field.TypeString, Unique: true, Size: 100},
	}
	// BrandsTable holds the schema information for the "brands" table.
	BrandsTable = &schema.Table{
		Name:       "brands",
		Columns:    BrandsColumns,
		PrimaryKey: []*schema.Column{BrandsColumns[0]},
	}

	// CategoryBrandsColumns holds the columns for the "category_brands" table.
	CategoryBrandsColumns = []*schema.Column{
		{Name: "category_id", Type: field.TypeInt64},
		{Name: "brand_id", Type: field.TypeInt64},
	}
	// CategoryBrandsTable holds the schema information for the "category_brands" table.
	CategoryBrandsTable = &schema.Table{
		Name:       "category_brands",
		Columns:    CategoryBrandsColumns,
		PrimaryKey: []*schema.Column{CategoryBrandsColumns[0], CategoryBrandsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "category_brands_category_id",
				Columns:    []*schema.Column{CategoryBrandsColumns[0]},
				RefColumns: []*schema.Column{CategoriesColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "category_brands_brand_id",
				Columns:    []*schema.Column{CategoryBrandsColumns[1]},
				RefColumns: []*schema.Column{BrandsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// AttributesColumns holds the columns for the "attributes" table.
	AttributesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "unique_name", Type: field.TypeString, Unique: true, Size: 100},
		{Name: "display_name", Type: field.TypeString, Size: 100},
		{Name: "data_type", Type: field.TypeEnum, Enums: []string{"text", "number", "choice", "switch"}},
		{Name: "is_required", Type: field.TypeBool, Default: false},
	}
	// AttributesTable holds the schema information for the "attributes" table.
	AttributesTable = &schema.Table{
		Name:       "attributes",
		Columns:    AttributesColumns,
		PrimaryKey: []*schema.Column{AttributesColumns[0]},
	}

	// CategoryAttributesColumns holds the columns for the "category_attributes" table.
	CategoryAttributesColumns = []*schema.Column{
		{Name: "category_id", Type: field.TypeInt64},
		{Name: "attribute_id", Type: field.TypeInt64},
	}
	// CategoryAttributesTable holds the schema information for the "category_attributes" table.
	CategoryAttributesTable = &schema.Table{
		Name:       "category_attributes",
		Columns:    CategoryAttributesColumns,
		PrimaryKey: []*schema.Column{CategoryAttributesColumns[0], CategoryAttributesColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "category_attributes_category_id",
				Columns:    []*schema.Column{CategoryAttributesColumns[0]},
				RefColumns: []*schema.Column{CategoriesColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "category_attributes_attribute_id",
				Columns:    []*schema.Column{CategoryAttributesColumns[1]},
				RefColumns: []*schema.Column{AttributesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// AttributeChoicesColumns holds the columns for the "attribute_choices" table.
	AttributeChoicesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "attribute_id", Type: field.TypeInt64},
		{Name: "value", Type: field.TypeString, Size: 100},
	}
	// AttributeChoicesTable holds the schema information for the "attribute_choices" table.
	AttributeChoicesTable = &schema.Table{
		Name:       "attribute_choices",
		Columns:    AttributeChoicesColumns,
		PrimaryKey: []*schema.Column{AttributeChoicesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "attribute_choices_attributes_attribute",
				Columns:    []*schema.Column{AttributeChoicesColumns[1]},
				RefColumns: []*schema.Column{AttributesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "attributechoice_attribute_id_value",
				Unique:  true,
				Columns: []*schema.Column{AttributeChoicesColumns[1], AttributeChoicesColumns[2]},
			},
		},
	}

	// RegionsColumns holds the columns for the "regions" table.
	RegionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "name", Type: field.TypeString, Size: 100},
		{Name: "parent_id", Type: field.TypeInt64, Nullable: true},
		{Name: "latitude", Type: field.TypeFloat64, Nullable: true},
		{Name: "longitude", Type: field.TypeFloat64, Nullable: true},
	}
	// RegionsTable holds the schema information for the "regions" table.
	RegionsTable = &schema.Table{
		Name:       "regions",
		Columns:    RegionsColumns,
		PrimaryKey: []*schema.Column{RegionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "regions_regions_parent",
				Columns:    []*schema.Column{RegionsColumns[2]},
				RefColumns: []*schema.Column{RegionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "region_name_parent_id",
				Unique:  true,
				Columns: []*schema.Column{RegionsColumns[1], RegionsColumns[2]},
			},
		},
	}

	// SalePostsColumns holds the columns for the "sale_posts" table.
	SalePostsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "post_id", Type: field.TypeInt, Unique: true},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"pending", "published", "sold", "deactivated"}, Default: "pending"},
		{Name: "seller_id", Type: field.TypeInt64},
		{Name: "category_id", Type: field.TypeInt64},
		{Name: "region_id", Type: field.TypeInt64},
		{Name: "title", Type: field.TypeString, Size: 70},
		{Name: "description", Type: field.TypeString, Size: textSize},
		{Name: "price", Type: field.TypeFloat64, SchemaType: money},
		{Name: "latitude", Type: field.TypeFloat64, Nullable: true},
		{Name: "longitude", Type: field.TypeFloat64, Nullable: true},
		{Name: "min_usage_range_id", Type: field.TypeInt64, Nullable: true},
		{Name: "max_usage_range_id", Type: field.TypeInt64, Nullable: true},
		{Name: "viewed", Type: field.TypeInt, Default: 0},
		{Name: "posted_at", Type: field.TypeTime, SchemaType: datetime},
		{Name: "updated_at", Type: field.TypeTime, SchemaType: datetime},
	}
	// SalePostsTable holds the schema information for the "sale_posts" table.
	SalePostsTable = &schema.Table{
		Name:       "sale_posts",
		Columns:    SalePostsColumns,
		PrimaryKey: []*schema.Column{SalePostsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "sale_posts_users_seller",
				Columns:    []*schema.Column{SalePostsColumns[3]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "sale_posts_categories_category",
				Columns:    []*schema.Column{SalePostsColumns[4]},
				RefColumns: []*schema.Column{CategoriesColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "sale_posts_regions_region",
				Columns:    []*schema.Column{SalePostsColumns[5]},
				RefColumns: []*schema.Column{RegionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "sale_posts_usage_ranges_min",
				Columns:    []*schema.Column{SalePostsColumns[11]},
				RefColumns: []*schema.Column{UsageRangesColumns[0]},
				OnDelete:   schema.SetNull,
			},
			{
				Symbol:     "sale_posts_usage_ranges_max",
				Columns:    []*schema.Column{SalePostsColumns[12]},
				RefColumns: []*schema.Column{UsageRangesColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "salepost_status_posted_at",
				Columns: []*schema.Column{SalePostsColumns[2], SalePostsColumns[14]},
			},
		},
	}

	// SalePostAttributesColumns holds the columns for the "sale_post_attributes" table.
	SalePostAttributesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "sale_post_id", Type: field.TypeInt64},
		{Name: "attribute_id", Type: field.TypeInt64},
		{Name: "value_text", Type: field.TypeString, Nullable: true},
		{Name: "value_number", Type: field.TypeFloat64, Nullable: true},
		{Name: "choice_id", Type: field.TypeInt64, Nullable: true},
	}
	// SalePostAttributesTable holds the schema information for the "sale_post_attributes" table.
	SalePostAttributesTable = &schema.Table{
		Name:       "sale_post_attributes",
		Columns:    SalePostAttributesColumns,
		PrimaryKey: []*schema.Column{SalePostAttributesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "sale_post_attributes_sale_posts_post",
				Columns:    []*schema.Column{SalePostAttributesColumns[1]},
				RefColumns: []*schema.Column{SalePostsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "sale_post_attributes_attributes_attribute",
				Columns:    []*schema.Column{SalePostAttributesColumns[2]},
				RefColumns: []*schema.Column{AttributesColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "sale_post_attributes_attribute_choices_choice",
				Columns:    []*schema.Column{SalePostAttributesColumns[5]},
				RefColumns: []*schema.Column{AttributeChoicesColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "salepostattribute_sale_post_id_attribute_id",
				Unique:  true,
				Columns: []*schema.Column{SalePostAttributesColumns[1], SalePostAttributesColumns[2]},
			},
		},
	}

	// ConversationsColumns holds the columns for the "conversations" table.
	ConversationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "unique_id", Type: field.TypeString, Unique: true, Size: 32},
		{Name: "type", Type: field.TypeEnum, Enums: []string{"private", "support", "announcement"}},
		{Name: "title", Type: field.TypeString, Default: ""},
		{Name: "sale_post_id", Type: field.TypeInt64, Nullable: true},
		{Name: "created_at", Type: field.TypeTime, SchemaType: datetime},
		{Name: "updated_at", Type: field.TypeTime, SchemaType: datetime},
	}
	// ConversationsTable holds the schema information for the "conversations" table.
	ConversationsTable = &schema.Table{
		Name:       "conversations",
		Columns:    ConversationsColumns,
		PrimaryKey: []*schema.Column{ConversationsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "conversations_sale_posts_sale_post",
				Columns:    []*schema.Column{ConversationsColumns[4]},
				RefColumns: []*schema.Column{SalePostsColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
	}

	// ConversationMembersColumns holds the columns for the "conversation_members" table.
	ConversationMembersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "conversation_id", Type: field.TypeInt64},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "is_deleted", Type: field.TypeBool, Default: false},
		{Name: "joined_at", Type: field.TypeTime, SchemaType: datetime},
	}
	// ConversationMembersTable holds the schema information for the "conversation_members" table.
	ConversationMembersTable = &schema.Table{
		Name:       "conversation_members",
		Columns:    ConversationMembersColumns,
		PrimaryKey: []*schema.Column{ConversationMembersColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "conversation_members_conversations_conversation",
				Columns:    []*schema.Column{ConversationMembersColumns[1]},
				RefColumns: []*schema.Column{ConversationsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "conversation_members_users_user",
				Columns:    []*schema.Column{ConversationMembersColumns[2]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "conversationmember_conversation_id_user_id",
				Unique:  true,
				Columns: []*schema.Column{ConversationMembersColumns[1], ConversationMembersColumns[2]},
			},
		},
	}

	// MessagesColumns holds the columns for the "messages" table.
	MessagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "conversation_id", Type: field.TypeInt64},
		{Name: "sender_id", Type: field.TypeInt64},
		{Name: "content", Type: field.TypeString, Size: textSize},
		{Name: "created_at", Type: field.TypeTime, SchemaType: datetime},
	}
	// MessagesTable holds the schema information for the "messages" table.
	MessagesTable = &schema.Table{
		Name:       "messages",
		Columns:    MessagesColumns,
		PrimaryKey: []*schema.Column{MessagesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "messages_conversations_conversation",
				Columns:    []*schema.Column{MessagesColumns[1]},
				RefColumns: []*schema.Column{ConversationsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "messages_users_sender",
				Columns:    []*schema.Column{MessagesColumns[2]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// MessageRelUsersColumns holds the columns for the "message_rel_users" table.
	MessageRelUsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "message_id", Type: field.TypeInt64},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "is_read", Type: field.TypeBool, Default: false},
		{Name: "is_deleted", Type: field.TypeBool, Default: false},
		{Name: "read_at", Type: field.TypeTime, Nullable: true, SchemaType: datetime},
	}
	// MessageRelUsersTable holds the schema information for the "message_rel_users" table.
	MessageRelUsersTable = &schema.Table{
		Name:       "message_rel_users",
		Columns:    MessageRelUsersColumns,
		PrimaryKey: []*schema.Column{MessageRelUsersColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "message_rel_users_messages_message",
				Columns:    []*schema.Column{MessageRelUsersColumns[1]},
				RefColumns: []*schema.Column{MessagesColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "message_rel_users_users_user",
				Columns:    []*schema.Column{MessageRelUsersColumns[2]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "messagereluser_message_id_user_id",
				Unique:  true,
				Columns: []*schema.Column{MessageRelUsersColumns[1], MessageRelUsersColumns[2]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		UsersTable,
		GroupsTable,
		UserGroupsTable,
		GroupPermissionsTable,
		OtpsTable,
		AgreementsTable,
		AcceptedAgreementsTable,
		UsageRangesTable,
		CategoriesTable,
		BrandsTable,
		CategoryBrandsTable,
		AttributesTable,
		CategoryAttributesTable,
		AttributeChoicesTable,
		RegionsTable,
		SalePostsTable,
		SalePostAttributesTable,
		ConversationsTable,
		ConversationMembersTable,
		MessagesTable,
		MessageRelUsersTable,
	}
)

func init() {
	UserGroupsTable.ForeignKeys[0].RefTable = UsersTable
	UserGroupsTable.ForeignKeys[1].RefTable = GroupsTable
	GroupPermissionsTable.ForeignKeys[0].RefTable = GroupsTable
	OtpsTable.ForeignKeys[0].RefTable = UsersTable
	AgreementsTable.ForeignKeys[0].RefTable = AgreementsTable
	AcceptedAgreementsTable.ForeignKeys[0].RefTable = AgreementsTable
	AcceptedAgreementsTable.ForeignKeys[1].RefTable = UsersTable
	CategoriesTable.ForeignKeys[0].RefTable = CategoriesTable
	CategoriesTable.ForeignKeys[1].RefTable = UsageRangesTable
	CategoriesTable.ForeignKeys[2].RefTable = UsageRangesTable
	CategoryBrandsTable.ForeignKeys[0].RefTable = CategoriesTable
	CategoryBrandsTable.ForeignKeys[1].RefTable = BrandsTable
	CategoryAttributesTable.ForeignKeys[0].RefTable = CategoriesTable
	CategoryAttributesTable.ForeignKeys[1].RefTable = AttributesTable
	AttributeChoicesTable.ForeignKeys[0].RefTable = AttributesTable
	RegionsTable.ForeignKeys[0].RefTable = RegionsTable
	SalePostsTable.ForeignKeys[0].RefTable = UsersTable
	SalePostsTable.ForeignKeys[1].RefTable = CategoriesTable
	SalePostsTable.ForeignKeys[2].RefTable = RegionsTable
	SalePostsTable.ForeignKeys[3].RefTable = UsageRangesTable
	SalePostsTable.ForeignKeys[4].RefTable = UsageRangesTable
	SalePostAttributesTable.ForeignKeys[0].RefTable = SalePostsTable
	SalePostAttributesTable.ForeignKeys[1].RefTable = AttributesTable
	SalePostAttributesTable.ForeignKeys[2].RefTable = AttributeChoicesTable
	ConversationsTable.ForeignKeys[0].RefTable = SalePostsTable
	ConversationMembersTable.ForeignKeys[0].RefTable = ConversationsTable
	ConversationMembersTable.ForeignKeys[1].RefTable = UsersTable
	MessagesTable.ForeignKeys[0].RefTable = ConversationsTable
	MessagesTable.ForeignKeys[1].RefTable = UsersTable
	MessageRelUsersTable.ForeignKeys[0].RefTable = MessagesTable
	MessageRelUsersTable.ForeignKeys[1].RefTable = UsersTable
}
