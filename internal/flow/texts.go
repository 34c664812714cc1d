package flow

// User facing texts.
const (
	txtWelcome            = "👋 Добро пожаловать! Давайте зарегистрируемся.\nПожалуйста, введите ваше ФИО:"
	txtAlreadyRegistered  = "Вы уже зарегистрированы!"
	txtDuplicateRegister  = "❌ Вы уже зарегистрированы!"
	txtBadFullName        = "❌ Пожалуйста, введите полное ФИО (например, Иванов Иван Иванович)."
	txtAskBirthDate       = "📅 Отлично! Теперь введите дату рождения в формате ДД.ММ.ГГГГ (например, 01.01.1990):"
	txtBadDateFormat      = "❌ Неверный формат даты! Используйте ДД.ММ.ГГГГ (например, 01.01.1990)."
	txtDateInFuture       = "❌ Дата рождения не может быть в будущем! Пожалуйста, введите корректную дату."
	txtDateTooOld         = "❌ Год рождения не может быть раньше 1900. Пожалуйста, введите корректную дату."
	txtAskPhone           = "📱 Теперь поделитесь номером телефона:"
	txtPhoneButtonOnly    = "❌ Пожалуйста, используйте кнопку для отправки номера телефона."
	txtForeignContact     = "❌ Пожалуйста, отправьте свой собственный номер телефона."
	txtBadPhone           = "❌ Некорректный номер телефона. Попробуйте ещё раз."
	txtRegistrationFailed = "Ошибка при регистрации. Попробуйте позже."
	txtRegistered         = "✅ Регистрация завершена!\nФИО: %s\nДата рождения: %s\nТелефон: %s"
	txtRegistrationCancel = "Регистрация отменена. Чтобы начать заново, отправьте /start."

	txtRegisterFirst      = "⚠️ Сначала пройдите регистрацию: отправьте /start."
	txtChooseType         = "Пожалуйста, выберите тип заявки:"
	txtBadType            = "Пожалуйста, выберите вариант из клавиатуры или нажмите ❌ Отмена."
	txtAskScreenshot      = "Прикрепите скриншот, если это необходимо, или нажмите «⏭ Пропустить». Для отмены нажмите ❌ Отмена."
	txtScreenshotOnly     = "Пожалуйста, отправьте фото или нажмите ❌ Отмена."
	txtChooseOptions      = "Теперь выберите, что требуется:"
	txtUseOptionButtons   = "Отметьте нужные пункты кнопками выше и нажмите «Подтвердить»."
	txtEmptySelection     = "Выберите хотя бы один пункт!"
	txtUnknownOption      = "⚠️ Неизвестный пункт."
	txtRequestSaveFailed  = "❌ Ошибка сохранения заявки. Попробуйте позже."
	txtRequestSent        = "Ваша заявка отправлена! Спасибо!"
	txtRequestCancelled   = "Заполнение заявки отменено."
	txtAdminNotification  = "Заявка №%d\nОт: %s (%s)\nТип: %s\nПредметы: %s"
	txtNothingToCancel    = "Нет активного действия."
	txtFallback           = "🤔 Не понимаю. Воспользуйтесь кнопками меню."
	txtOutdatedButton     = "⚠️ Эта кнопка устарела."
	txtConcurrentUpdate   = "⚠️ Действие устарело, попробуйте ещё раз."
	txtDatabaseError      = "❌ Ошибка базы данных. Попробуйте позже."
	txtBadRequestError    = "❌ Некорректный запрос. Попробуйте снова."
	txtTelegramError      = "❌ Ошибка Telegram. Попробуйте снова чуть позже."
	txtUnexpectedError    = "❌ Неизвестная ошибка. Мы уже разбираемся!"
	txtAdminNoAccess      = "❌ У вас нет доступа к админ-панели."
	txtAdminNoAccessShort = "❌ Нет доступа."
	txtAdminMenu          = "🔧 *Админ-панель*\n\nВыберите действие:"
	txtAdminStats         = "📊 *Статистика бота*\n\n👥 Пользователей: %d\n📝 Заявок: %d"
	txtAdminClosed        = "❌ Админ-панель закрыта."
	txtUsersPage          = "👥 *Список пользователей* (стр. %d/%d)\n\nВыберите пользователя:"
	txtUsersEmpty         = "👥 Пользователей пока нет."
	txtUserNotFound       = "❌ Пользователь не найден."
	txtUserCard           = "👤 *Информация о пользователе*\n\n🆔 ID: `%d`\n📝 ФИО: %s\n📅 Дата рождения: %s\n📱 Телефон: %s"
	txtBroadcastAsk       = "📢 *Рассылка*\n\nОтправьте сообщение для рассылки (текст, фото или фото с текстом):"
	txtBroadcastEmpty     = "Отправьте текст или фото для рассылки."
	txtBroadcastPreview   = "📢 *Предварительный просмотр рассылки:*\n\n"
	txtBroadcastHasPhoto  = "📷 *Фото:* Да\n"
	txtBroadcastText      = "📝 *Текст:* "
	txtBroadcastUseButton = "Подтвердите или отмените рассылку кнопками выше."
	txtBroadcastDone      = "✅ *Рассылка завершена!*\n📤 Отправлено: %d/%d"
	txtBroadcastFailed    = "❌ Ошибка при отправке рассылки."
	txtBroadcastCancelled = "❌ Рассылка отменена."
)

const previewLimit = 100
