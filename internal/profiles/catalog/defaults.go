package catalog

func required(key, fieldType string) IntakeField {
	return IntakeField{Key: key, Required: true, Type: fieldType}
}

func optional(key, fieldType string) IntakeField {
	return IntakeField{Key: key, Required: false, Type: fieldType}
}

func minutes(n int) *int {
	return &n
}

func cents(n int64) *int64 {
	return &n
}

// contactFields is the minimal intake of a callback-style lead.
func contactFields(extra ...IntakeField) []IntakeField {
	fields := []IntakeField{
		required("name", FieldText),
		required("phone", FieldPhone),
		optional("email", FieldEmail),
	}
	return append(fields, extra...)
}

// DefaultProfiles returns the built-in industry profiles.
func DefaultProfiles() []BookingProfile {
	return []BookingProfile{
		{
			Key:         GenericKey,
			DisplayName: "General business",
			DefaultMode: ModeInternal,
			AppointmentTypes: []AppointmentType{
				{ID: "consultation", Label: "Consultation", Mode: ModeInternal, IntakeFields: contactFields(optional("notes", FieldTextarea)), DurationMins: minutes(30)},
				{ID: "callback", Label: "Request a callback", Mode: ModeInternal, IntakeFields: contactFields()},
			},
			CTAs: []CTA{
				{ID: "book_consultation", Label: "Book a consultation", AppointmentTypeID: "consultation", MessageTemplate: "I'd like to book a consultation."},
				{ID: "request_callback", Label: "Call me back", AppointmentTypeID: "callback", MessageTemplate: "Please call me back."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "consultation", ValidateBeforeRedirect: true},
		},
		{
			Key:         "barber",
			DisplayName: "Barber",
			DefaultMode: ModeExternal,
			AppointmentTypes: []AppointmentType{
				{ID: "haircut", Label: "Haircut", Mode: ModeExternal, DurationMins: minutes(30)},
				{ID: "beard_trim", Label: "Beard trim", Mode: ModeExternal, DurationMins: minutes(15)},
				{ID: "haircut_and_beard", Label: "Haircut and beard", Mode: ModeExternal, DurationMins: minutes(45)},
				{ID: "callback_request", Label: "Request a callback", Mode: ModeInternal, IntakeFields: contactFields(optional("preferred_time", FieldText))},
			},
			CTAs: []CTA{
				{ID: "book_haircut", Label: "Book a haircut", AppointmentTypeID: "haircut", MessageTemplate: "I'd like to book a haircut."},
				{ID: "book_beard_trim", Label: "Book a beard trim", AppointmentTypeID: "beard_trim", MessageTemplate: "I'd like a beard trim."},
				{ID: "book_combo", Label: "Haircut + beard", AppointmentTypeID: "haircut_and_beard", MessageTemplate: "I'd like a haircut and a beard trim."},
				{ID: "request_callback", Label: "Call me back", AppointmentTypeID: "callback_request", MessageTemplate: "Please call me back about an appointment."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "callback_request", ValidateBeforeRedirect: true},
		},
		{
			Key:         "hair_salon",
			DisplayName: "Hair salon",
			DefaultMode: ModeExternal,
			AppointmentTypes: []AppointmentType{
				{ID: "cut_and_style", Label: "Cut & style", Mode: ModeExternal, DurationMins: minutes(60)},
				{ID: "blow_dry", Label: "Blow-dry", Mode: ModeExternal, DurationMins: minutes(30)},
				{ID: "color_consultation", Label: "Colour consultation", Mode: ModeInternal, IntakeFields: contactFields(optional("hair_history", FieldTextarea)), DurationMins: minutes(20)},
			},
			CTAs: []CTA{
				{ID: "book_cut", Label: "Book a cut", AppointmentTypeID: "cut_and_style", MessageTemplate: "I'd like to book a cut and style."},
				{ID: "book_blow_dry", Label: "Book a blow-dry", AppointmentTypeID: "blow_dry", MessageTemplate: "I'd like to book a blow-dry."},
				{ID: "color_consult", Label: "Colour consultation", AppointmentTypeID: "color_consultation", MessageTemplate: "I'd like advice on colouring my hair."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "color_consultation", ValidateBeforeRedirect: true},
		},
		{
			Key:         "beauty_spa",
			DisplayName: "Beauty & spa",
			DefaultMode: ModeExternal,
			AppointmentTypes: []AppointmentType{
				{ID: "facial", Label: "Facial", Mode: ModeExternal, DurationMins: minutes(60)},
				{ID: "massage", Label: "Massage", Mode: ModeExternal, DurationMins: minutes(60)},
				{ID: "treatment_consultation", Label: "Treatment consultation", Mode: ModeInternal, IntakeFields: contactFields(optional("skin_concerns", FieldTextarea))},
			},
			CTAs: []CTA{
				{ID: "book_facial", Label: "Book a facial", AppointmentTypeID: "facial", MessageTemplate: "I'd like to book a facial."},
				{ID: "book_massage", Label: "Book a massage", AppointmentTypeID: "massage", MessageTemplate: "I'd like to book a massage."},
				{ID: "ask_consultation", Label: "Free consultation", AppointmentTypeID: "treatment_consultation", MessageTemplate: "Which treatment is right for me?"},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "treatment_consultation", ValidateBeforeRedirect: true},
		},
		{
			Key:         "dental",
			DisplayName: "Dental practice",
			DefaultMode: ModeInternal,
			AppointmentTypes: []AppointmentType{
				{ID: "new_patient_exam", Label: "New patient exam", Mode: ModeInternal, IntakeFields: contactFields(optional("insurance_provider", FieldText)), DurationMins: minutes(45)},
				{ID: "cleaning", Label: "Cleaning", Mode: ModeInternal, IntakeFields: contactFields(), DurationMins: minutes(30)},
				{ID: "emergency_visit", Label: "Dental emergency", Mode: ModeInternal, IntakeFields: contactFields(required("symptoms", FieldTextarea))},
			},
			CTAs: []CTA{
				{ID: "book_exam", Label: "New patient exam", AppointmentTypeID: "new_patient_exam", MessageTemplate: "I'm a new patient and would like an exam."},
				{ID: "book_cleaning", Label: "Book a cleaning", AppointmentTypeID: "cleaning", MessageTemplate: "I'd like to schedule a cleaning."},
				{ID: "emergency", Label: "Dental emergency", AppointmentTypeID: "emergency_visit", MessageTemplate: "I have a dental emergency."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "new_patient_exam", ValidateBeforeRedirect: true},
		},
		{
			Key:         "medical_clinic",
			DisplayName: "Medical clinic",
			DefaultMode: ModeInternal,
			AppointmentTypes: []AppointmentType{
				{ID: "appointment_request", Label: "Appointment request", Mode: ModeInternal, IntakeFields: contactFields(optional("date_of_birth", FieldDate), optional("reason", FieldTextarea))},
				{ID: "telehealth_visit", Label: "Video consultation", Mode: ModeExternal, DurationMins: minutes(20)},
			},
			CTAs: []CTA{
				{ID: "request_appointment", Label: "Request an appointment", AppointmentTypeID: "appointment_request", MessageTemplate: "I'd like to see a doctor."},
				{ID: "book_telehealth", Label: "Video consultation", AppointmentTypeID: "telehealth_visit", MessageTemplate: "I'd like a video consultation."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "appointment_request", ValidateBeforeRedirect: true},
		},
		{
			Key:         "fitness",
			DisplayName: "Fitness studio",
			DefaultMode: ModeExternal,
			AppointmentTypes: []AppointmentType{
				{ID: "trial_class", Label: "Trial class", Mode: ModeExternal, DurationMins: minutes(60), PriceCents: cents(0)},
				{ID: "personal_training_consult", Label: "Personal training intro", Mode: ModeInternal, IntakeFields: contactFields(optional("goals", FieldTextarea))},
			},
			CTAs: []CTA{
				{ID: "book_trial", Label: "Book a free trial", AppointmentTypeID: "trial_class", MessageTemplate: "I'd like to try a class."},
				{ID: "pt_intro", Label: "Personal training", AppointmentTypeID: "personal_training_consult", MessageTemplate: "I'm interested in personal training."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "personal_training_consult", ValidateBeforeRedirect: true},
		},
		{
			Key:         "home_services",
			DisplayName: "Home services",
			DefaultMode: ModeInternal,
			AppointmentTypes: []AppointmentType{
				{ID: "estimate_visit", Label: "On-site estimate", Mode: ModeInternal, IntakeFields: contactFields(required("address", FieldText), optional("job_description", FieldTextarea))},
				{ID: "emergency_call", Label: "Emergency call-out", Mode: ModeInternal, IntakeFields: contactFields(required("address", FieldText))},
			},
			CTAs: []CTA{
				{ID: "request_estimate", Label: "Get an estimate", AppointmentTypeID: "estimate_visit", MessageTemplate: "I'd like an estimate."},
				{ID: "emergency", Label: "Emergency", AppointmentTypeID: "emergency_call", MessageTemplate: "I need help right away."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "estimate_visit", ValidateBeforeRedirect: true},
		},
		{
			Key:         "auto_repair",
			DisplayName: "Auto repair",
			DefaultMode: ModeInternal,
			AppointmentTypes: []AppointmentType{
				{ID: "service_appointment", Label: "Service appointment", Mode: ModeInternal, IntakeFields: contactFields(optional("vehicle", FieldText), optional("issue", FieldTextarea))},
				{ID: "quote_request", Label: "Repair quote", Mode: ModeInternal, IntakeFields: contactFields(required("vehicle", FieldText))},
			},
			CTAs: []CTA{
				{ID: "book_service", Label: "Book a service", AppointmentTypeID: "service_appointment", MessageTemplate: "My car needs a service."},
				{ID: "get_quote", Label: "Get a quote", AppointmentTypeID: "quote_request", MessageTemplate: "How much would a repair cost?"},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "service_appointment", ValidateBeforeRedirect: true},
		},
		{
			Key:         "legal",
			DisplayName: "Legal services",
			DefaultMode: ModeInternal,
			AppointmentTypes: []AppointmentType{
				{ID: "case_consultation", Label: "Case consultation", Mode: ModeInternal, IntakeFields: contactFields(optional("case_summary", FieldTextarea)), DurationMins: minutes(30)},
			},
			CTAs: []CTA{
				{ID: "book_consultation", Label: "Free case review", AppointmentTypeID: "case_consultation", MessageTemplate: "I'd like to discuss my case."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "case_consultation", ValidateBeforeRedirect: true},
		},
		{
			Key:         "restaurant",
			DisplayName: "Restaurant",
			DefaultMode: ModeExternal,
			AppointmentTypes: []AppointmentType{
				{ID: "table_reservation", Label: "Table reservation", Mode: ModeExternal},
				{ID: "private_event_inquiry", Label: "Private event", Mode: ModeInternal, IntakeFields: contactFields(optional("party_size", FieldNumber), optional("event_date", FieldDate))},
			},
			CTAs: []CTA{
				{ID: "reserve_table", Label: "Reserve a table", AppointmentTypeID: "table_reservation", MessageTemplate: "I'd like to reserve a table."},
				{ID: "private_event", Label: "Private events", AppointmentTypeID: "private_event_inquiry", MessageTemplate: "I'm planning a private event."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "private_event_inquiry", ValidateBeforeRedirect: true},
		},
		{
			Key:         "real_estate",
			DisplayName: "Real estate",
			DefaultMode: ModeInternal,
			AppointmentTypes: []AppointmentType{
				{ID: "property_viewing", Label: "Property viewing", Mode: ModeInternal, IntakeFields: contactFields(optional("property_reference", FieldText))},
				{ID: "valuation_request", Label: "Home valuation", Mode: ModeInternal, IntakeFields: contactFields(required("address", FieldText))},
			},
			CTAs: []CTA{
				{ID: "book_viewing", Label: "Book a viewing", AppointmentTypeID: "property_viewing", MessageTemplate: "I'd like to view a property."},
				{ID: "request_valuation", Label: "Free valuation", AppointmentTypeID: "valuation_request", MessageTemplate: "What is my home worth?"},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "property_viewing", ValidateBeforeRedirect: true},
		},
		{
			Key:         "pet_grooming",
			DisplayName: "Pet grooming",
			DefaultMode: ModeExternal,
			AppointmentTypes: []AppointmentType{
				{ID: "grooming_session", Label: "Grooming session", Mode: ModeExternal, DurationMins: minutes(90)},
				{ID: "groomer_callback", Label: "Ask the groomer", Mode: ModeInternal, IntakeFields: contactFields(optional("pet_breed", FieldText))},
			},
			CTAs: []CTA{
				{ID: "book_grooming", Label: "Book grooming", AppointmentTypeID: "grooming_session", MessageTemplate: "I'd like to book a grooming session."},
				{ID: "ask_groomer", Label: "Ask a question", AppointmentTypeID: "groomer_callback", MessageTemplate: "I have a question about grooming."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "groomer_callback", ValidateBeforeRedirect: true},
		},
		{
			Key:         "tattoo",
			DisplayName: "Tattoo studio",
			DefaultMode: ModeExternal,
			AppointmentTypes: []AppointmentType{
				{ID: "tattoo_session", Label: "Tattoo session", Mode: ModeExternal},
				{ID: "design_consultation", Label: "Design consultation", Mode: ModeInternal, IntakeFields: contactFields(optional("idea", FieldTextarea), optional("placement", FieldText))},
			},
			CTAs: []CTA{
				{ID: "book_session", Label: "Book a session", AppointmentTypeID: "tattoo_session", MessageTemplate: "I'd like to book a tattoo session."},
				{ID: "discuss_design", Label: "Discuss a design", AppointmentTypeID: "design_consultation", MessageTemplate: "I have an idea for a tattoo."},
			},
			Failsafe: FailsafeConfig{PivotAppointmentTypeID: "design_consultation", ValidateBeforeRedirect: true},
		},
	}
}

// DefaultAliases maps alternate spellings to canonical profile keys.
func DefaultAliases() map[string]string {
	return map[string]string{
		"barbershop":  "barber",
		"barber_shop": "barber",
		"barber shop": "barber",
		"barbers":     "barber",

		"salon":        "hair_salon",
		"hair salon":   "hair_salon",
		"hairdresser":  "hair_salon",
		"hair_stylist": "hair_salon",

		"spa":          "beauty_spa",
		"day_spa":      "beauty_spa",
		"medspa":       "beauty_spa",
		"med_spa":      "beauty_spa",
		"beauty":       "beauty_spa",
		"nail_salon":   "beauty_spa",
		"beauty_salon": "beauty_spa",

		"dentist":       "dental",
		"dental_clinic": "dental",
		"orthodontist":  "dental",

		"clinic":           "medical_clinic",
		"doctor":           "medical_clinic",
		"physician":        "medical_clinic",
		"chiropractor":     "medical_clinic",
		"physiotherapy":    "medical_clinic",
		"physical_therapy": "medical_clinic",

		"gym":              "fitness",
		"fitness_studio":   "fitness",
		"personal_trainer": "fitness",
		"yoga":             "fitness",
		"yoga_studio":      "fitness",
		"pilates":          "fitness",

		"plumber":     "home_services",
		"plumbing":    "home_services",
		"electrician": "home_services",
		"hvac":        "home_services",
		"handyman":    "home_services",
		"roofer":      "home_services",
		"roofing":     "home_services",
		"cleaning":    "home_services",
		"landscaping": "home_services",

		"mechanic":   "auto_repair",
		"auto_shop":  "auto_repair",
		"car_repair": "auto_repair",
		"garage":     "auto_repair",

		"lawyer":   "legal",
		"attorney": "legal",
		"law_firm": "legal",

		"cafe":   "restaurant",
		"bistro": "restaurant",

		"realtor":             "real_estate",
		"real_estate_agent":   "real_estate",
		"property_management": "real_estate",

		"groomer":      "pet_grooming",
		"dog_grooming": "pet_grooming",
		"pet_salon":    "pet_grooming",

		"tattoo_studio": "tattoo",
		"tattoo_parlor": "tattoo",
		"tattoo_shop":   "tattoo",
	}
}
