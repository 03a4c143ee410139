package i18n

var catalogue = map[Lang]map[string]string{
	UZ: {
		"welcome":          "🏠 <b>HTML Host Botga xush kelibsiz!</b>\n\nHTML fayl yuboring → darhol hosting qilamiz",
		"choose_lang":      "🌐 <b>Tilni tanlang:</b>",
		"language":         "🌐 Til",
		"file_only_html":   "❌ Faqat .html fayl yuboring!",
		"file_received":    "📥 <b>Fayl qabul qilindi!</b>\n\nYaratilmoqda...",
		"upload_new":       "📤 Yangi HTML fayl yuboring",
		"press_upload":     "❗ Avval yuklash tugmasini bosing yoki /my buyrugʻini yuboring.",
		"my_sites":         "📁 Sizning saytlaringiz",
		"no_sites":         "📭 Hozircha saytlar mavjud emas.\n\nHTML fayl yuboring!",
		"delete":           "🗑 Oʻchirish",
		"view":             "👀 Koʻrish",
		"new_upload":       "🆕 Yangi yuklash",
		"back":             "🔙 Orqaga",
		"help":             "ℹ️ <b>Yordam</b>\n\n• HTML fayl yuboring → hosting\n• Yangi fayl = yangilash\n• Oʻchirish = tugma orqali\n\n/my — saytlar roʻyxati",
		"error":            "❌ Faylni saqlashda xato",
		"not_html":         "Bu HTML fayl emas!",
		"too_large":        "❌ Fayl juda katta (maksimum 20 MB).",
		"processing_error": "❌ Faylni qayta ishlashda xato. Keyinroq urinib koʻring.",
		"success":          "✅ <b>Muvaffaqiyatli yaratildi!</b>",
		"updated":          "🔄 <b>Yangilandi!</b>",
		"deleted":          "🗑 <b>Oʻchirildi!</b>",
		"confirm_delete":   "⚠️ Ushbu saytni oʻchirmoqchimisiz?",
		"yes":              "✅ Ha",
		"update_prompt":    "🔄 Yangilash",
		"not_your_site":    "❌ Bu sayt sizga tegishli emas",
		"site_not_found":   "❌ Sayt topilmadi",
		"no_pending":       "❗ Bu amal muddati oʻtgan. Qaytadan urinib koʻring.",
		"cancel":           "❌ Bekor qilish",
		"cancelled":        "❎ Bekor qilindi",
		"size":             "Hajmi",
		"qr_caption":       "📱 QR kod",
	},
	EN: {
		"welcome":          "🏠 <b>Welcome to HTML Host Bot!</b>\n\nSend HTML file → instant hosting",
		"choose_lang":      "🌐 <b>Choose language:</b>",
		"language":         "🌐 Language",
		"file_only_html":   "❌ Only .html files!",
		"file_received":    "📥 <b>File received!</b>\n\nCreating...",
		"upload_new":       "📤 Send new HTML file",
		"press_upload":     "❗ Press the upload button first or send /my.",
		"my_sites":         "📁 Your sites",
		"no_sites":         "📭 No sites yet.\n\nSend HTML file!",
		"delete":           "🗑 Delete",
		"view":             "👀 View",
		"new_upload":       "🆕 Upload new",
		"back":             "🔙 Back",
		"help":             "ℹ️ <b>Help</b>\n\n• Send HTML file → hosting\n• New file = update\n• Delete = via button\n\n/my — sites list",
		"error":            "❌ Error saving file",
		"not_html":         "This is not an HTML file!",
		"too_large":        "❌ File is too large (20 MB max).",
		"processing_error": "❌ Could not process the file. Please try again later.",
		"success":          "✅ <b>Successfully created!</b>",
		"updated":          "🔄 <b>Updated!</b>",
		"deleted":          "🗑 <b>Deleted!</b>",
		"confirm_delete":   "⚠️ Are you sure you want to delete this site?",
		"yes":              "✅ Yes",
		"update_prompt":    "🔄 Update",
		"not_your_site":    "❌ This site does not belong to you",
		"site_not_found":   "❌ Site not found",
		"no_pending":       "❗ This action has expired. Please start again.",
		"cancel":           "❌ Cancel",
		"cancelled":        "❎ Cancelled",
		"size":             "Size",
		"qr_caption":       "📱 QR code",
	},
	RU: {
		"welcome":          "🏠 <b>Добро пожаловать в HTML Host Bot!</b>\n\nОтправьте HTML файл → мгновенный хостинг",
		"choose_lang":      "🌐 <b>Выберите язык:</b>",
		"language":         "🌐 Язык",
		"file_only_html":   "❌ Только .html файлы!",
		"file_received":    "📥 <b>Файл получен!</b>\n\nСоздаем...",
		"upload_new":       "📤 Отправить новый HTML файл",
		"press_upload":     "❗ Сначала нажмите кнопку загрузки или отправьте /my.",
		"my_sites":         "📁 Ваши сайты",
		"no_sites":         "📭 Сайтов пока нет.\n\nОтправьте HTML файл!",
		"delete":           "🗑 Удалить",
		"view":             "👀 Посмотреть",
		"new_upload":       "🆕 Загрузить новый",
		"back":             "🔙 Назад",
		"help":             "ℹ️ <b>Помощь</b>\n\n• Отправьте HTML файл → хостинг\n• Новый файл = обновление\n• Удалить = через кнопку\n\n/my — список сайтов",
		"error":            "❌ Ошибка сохранения файла",
		"not_html":         "Это не HTML файл!",
		"too_large":        "❌ Файл слишком большой (максимум 20 МБ).",
		"processing_error": "❌ Не удалось обработать файл. Попробуйте позже.",
		"success":          "✅ <b>Успешно создано!</b>",
		"updated":          "🔄 <b>Обновлено!</b>",
		"deleted":          "🗑 <b>Удалено!</b>",
		"confirm_delete":   "⚠️ Вы уверены, что хотите удалить этот сайт?",
		"yes":              "✅ Да",
		"update_prompt":    "🔄 Обновить",
		"not_your_site":    "❌ Этот сайт вам не принадлежит",
		"site_not_found":   "❌ Сайт не найден",
		"no_pending":       "❗ Это действие устарело. Начните заново.",
		"cancel":           "❌ Отмена",
		"cancelled":        "❎ Отменено",
		"size":             "Размер",
		"qr_caption":       "📱 QR-код",
	},
}
